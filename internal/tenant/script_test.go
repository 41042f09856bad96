package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatementsBasic(t *testing.T) {
	script := `
CREATE TABLE finance_category (id SERIAL PRIMARY KEY, name TEXT NOT NULL);
CREATE TABLE tasks (id SERIAL PRIMARY KEY, title TEXT NOT NULL);
INSERT INTO finance_category (name) VALUES ('General');
`
	statements := SplitStatements(script)
	require.Len(t, statements, 3)
	assert.Contains(t, statements[0], "finance_category")
	assert.Contains(t, statements[1], "tasks")
	assert.Contains(t, statements[2], "INSERT INTO")
}

func TestSplitStatementsSemicolonInStringLiteral(t *testing.T) {
	script := `INSERT INTO t (name) VALUES ('a;b');
INSERT INTO t (name) VALUES ('it''s; fine');`
	statements := SplitStatements(script)
	require.Len(t, statements, 2)
	assert.Equal(t, `INSERT INTO t (name) VALUES ('a;b')`, statements[0])
	assert.Equal(t, `INSERT INTO t (name) VALUES ('it''s; fine')`, statements[1])
}

func TestSplitStatementsComments(t *testing.T) {
	script := `-- leading comment; not a statement
CREATE TABLE a (id INT); -- trailing; comment
/* block; comment */
CREATE TABLE b (id INT);
`
	statements := SplitStatements(script)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE a")
	assert.Contains(t, statements[1], "CREATE TABLE b")
}

func TestSplitStatementsDollarQuotedBody(t *testing.T) {
	script := `CREATE FUNCTION touch() RETURNS trigger AS $$
BEGIN
  NEW.updated_at = NOW();
  RETURN NEW;
END;
$$ LANGUAGE plpgsql;
CREATE TABLE c (id INT);`
	statements := SplitStatements(script)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "LANGUAGE plpgsql")
	assert.Contains(t, statements[0], "RETURN NEW;")
	assert.Contains(t, statements[1], "CREATE TABLE c")
}

func TestSplitStatementsQuotedIdentifier(t *testing.T) {
	statements := SplitStatements(`CREATE TABLE "odd;name" (id INT);`)
	require.Len(t, statements, 1)
	assert.Equal(t, `CREATE TABLE "odd;name" (id INT)`, statements[0])
}

func TestSplitStatementsMissingFinalSemicolon(t *testing.T) {
	statements := SplitStatements("CREATE TABLE a (id INT);\nCREATE TABLE b (id INT)")
	require.Len(t, statements, 2)
}

func TestApplyScriptExecutesInOrder(t *testing.T) {
	c := newFakeConn()
	err := applyScript(context.Background(), c, "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);\nCREATE TABLE c (id INT);")
	require.NoError(t, err)
	require.Len(t, c.execs, 3)
	assert.Contains(t, c.execs[0], "TABLE a")
	assert.Contains(t, c.execs[1], "TABLE b")
	assert.Contains(t, c.execs[2], "TABLE c")
}

func TestApplyScriptAbortsOnFirstFailure(t *testing.T) {
	boom := errors.New("syntax error")
	c := newFakeConn()
	c.failWhen = func(_ int, sql string) error {
		if sql == "CREATE TABLE b (id INT)" {
			return boom
		}
		return nil
	}

	err := applyScript(context.Background(), c, "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);\nCREATE TABLE c (id INT);")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "statement 2/3")
	// statement 3 must not run after statement 2 fails
	require.Len(t, c.execs, 2)
}
