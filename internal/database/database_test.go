package database_test

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/hr-management/internal/database"
	"github.com/frahmantamala/hr-management/internal/testutil"
)

var _ = Describe("LIKE patterns", func() {
	It("escapes wildcards and the escape character", func() {
		Expect(database.ContainsPattern(`50%_A\b`)).To(Equal(`%50\%\_a\\b%`))
		Expect(database.PrefixPattern("Budi_")).To(Equal(`budi\_%`))
	})
})

var _ = Describe("Transactor", func() {
	var (
		db  *sqlx.DB
		tx  *database.Transactor
		ctx context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testutil.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)
		tx = database.NewTransactor(db)
		ctx = context.Background()
	})

	It("runs after-commit hooks only once the outermost transaction commits", func() {
		var ran []string
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			database.AfterCommit(ctx, func(context.Context) { ran = append(ran, "outer") })
			return tx.WithinTx(ctx, func(ctx context.Context) error {
				database.AfterCommit(ctx, func(context.Context) { ran = append(ran, "inner") })
				Expect(ran).To(BeEmpty())
				return nil
			})
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(ran).To(Equal([]string{"outer", "inner"}))
	})

	It("hands hooks a context that no longer carries the transaction", func() {
		var hookExec sqlx.ExtContext
		err := tx.WithinTx(ctx, func(txCtx context.Context) error {
			Expect(database.Executor(txCtx, db)).NotTo(BeIdenticalTo(db))
			database.AfterCommit(txCtx, func(ctx context.Context) { hookExec = database.Executor(ctx, db) })
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(hookExec).To(BeIdenticalTo(db))
	})

	It("discards hooks of a rolled back transaction", func() {
		boom := errors.New("boom")
		ran := false
		err := tx.WithinTx(ctx, func(ctx context.Context) error {
			database.AfterCommit(ctx, func(context.Context) { ran = true })
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(ran).To(BeFalse())
	})

	It("runs hooks immediately outside a transaction", func() {
		ran := false
		database.AfterCommit(ctx, func(context.Context) { ran = true })
		Expect(ran).To(BeTrue())
	})
})
