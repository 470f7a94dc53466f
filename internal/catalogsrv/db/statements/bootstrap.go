package statements

import (
	"bufio"
	"context"
	"embed"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/dberror"
	"github.com/tansive/polycatalog/internal/catalogsrv/db/models"
	"github.com/tansive/polycatalog/pkg/types"
)

//go:embed scripts
var scripts embed.FS

// TxExecutor is an Executor that can end its transaction.
type TxExecutor interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ParseScript splits a SQL script into statements. A statement ends with a
// semicolon at the end of a line. Blank lines and lines starting with "--"
// or "//" are skipped.
func ParseScript(script string) ([]string, error) {
	var stmts []string
	var cur strings.Builder
	sc := bufio.NewScanner(strings.NewReader(script))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "--") || strings.HasPrefix(line, "//") {
			continue
		}
		if cur.Len() > 0 {
			cur.WriteString("\n")
		}
		if strings.HasSuffix(line, ";") {
			cur.WriteString(strings.TrimSuffix(line, ";"))
			stmts = append(stmts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if cur.Len() > 0 {
		return nil, errors.Errorf("unterminated statement: %q", cur.String())
	}
	return stmts, nil
}

// RunScript executes every statement of script in order and stops at the first failure.
func RunScript(ctx context.Context, ex Executor, script string) error {
	stmts, err := ParseScript(script)
	if err != nil {
		return dberror.ErrInvalidInput.MsgErr("invalid script", err)
	}
	for i, stmt := range stmts {
		if _, err := ex.Execute(ctx, stmt); err != nil {
			log.Ctx(ctx).Error().Err(err).Int("statement", i+1).Str("sql", stmt).Msg("script statement failed")
			return dberror.ErrDatabase.Err(errors.Wrapf(err, "statement %d", i+1))
		}
	}
	return nil
}

func runEmbedded(ctx context.Context, ex Executor, name string) error {
	b, err := scripts.ReadFile("scripts/" + string(ex.Dialect()) + "/" + name)
	if err != nil {
		return dberror.ErrDatabase.MsgErr("no "+name+" script for dialect "+string(ex.Dialect()), err)
	}
	return RunScript(ctx, ex, string(b))
}

// DropSchema removes all catalog tables.
func DropSchema(ctx context.Context, ex Executor) error {
	return runEmbedded(ctx, ex, "drop.sql")
}

// CreateSchema creates all catalog tables. They must not exist yet.
func CreateSchema(ctx context.Context, ex Executor) error {
	return runEmbedded(ctx, ex, "create.sql")
}

// SeedParams names the objects a fresh catalog starts with.
type SeedParams struct {
	User         string
	PasswordHash string
	Database     string
	Schema       string
}

// Seed inserts the default user, the default database owned by that user
// and one relational schema in it.
func Seed(ctx context.Context, ex Executor, p SeedParams) error {
	userID, err := AddUser(ctx, ex, p.User, p.PasswordHash)
	if err != nil {
		return err
	}
	db := &models.Database{
		Name:      p.Database,
		OwnerID:   userID,
		Encoding:  types.EncodingUTF8,
		Collation: types.CollationCaseInsensitive,
	}
	if _, err := AddDatabase(ctx, ex, db); err != nil {
		return err
	}
	schema := &models.Schema{
		Name:       p.Schema,
		DatabaseID: db.ID,
		OwnerID:    userID,
		Encoding:   types.EncodingUTF8,
		Collation:  types.CollationCaseInsensitive,
		SchemaType: types.SchemaTypeRelational,
	}
	_, err = AddSchema(ctx, ex, schema)
	return err
}

// Bootstrap drops and recreates the catalog tables and seeds them, all in
// tx. tx is committed on success and rolled back on any failure.
func Bootstrap(ctx context.Context, tx TxExecutor, p SeedParams) error {
	if err := bootstrap(ctx, tx, p); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Ctx(ctx).Error().Err(rbErr).Msg("failed to roll back bootstrap")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to commit bootstrap")
		return err
	}
	log.Ctx(ctx).Info().Str("dialect", string(tx.Dialect())).Msg("catalog bootstrapped")
	return nil
}

func bootstrap(ctx context.Context, ex Executor, p SeedParams) error {
	if err := DropSchema(ctx, ex); err != nil {
		return err
	}
	if err := CreateSchema(ctx, ex); err != nil {
		return err
	}
	return Seed(ctx, ex, p)
}
