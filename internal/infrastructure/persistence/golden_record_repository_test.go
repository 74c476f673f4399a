package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flechaamarilla/mdm/internal/domain/mdm"
	"github.com/flechaamarilla/mdm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id
}

func TestGormIssuerRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormIssuerRepository(newTestDB(t))

	issuer := mdm.NewIssuer("tenant-1", mdm.CleanedRecord{
		mdm.FieldRFC:          "AAA010101AAA",
		mdm.FieldBusinessName: "Acme SA",
		mdm.FieldTaxRegime:    "601",
	})
	require.NoError(t, repo.Save(ctx, issuer))

	found, err := repo.FindByTenantAndRFC(ctx, "tenant-1", "AAA010101AAA")
	require.NoError(t, err)
	assert.Equal(t, issuer.ID, found.ID)
	assert.Equal(t, "Acme SA", found.BusinessName)

	t.Run("update overwrites and blanks absent fields", func(t *testing.T) {
		found.Apply(mdm.CleanedRecord{mdm.FieldRFC: "AAA010101AAA", mdm.FieldPostalCode: "01000"})
		require.NoError(t, repo.Save(ctx, found))

		again, err := repo.FindByID(ctx, issuer.ID)
		require.NoError(t, err)
		assert.Equal(t, "", again.BusinessName)
		assert.Equal(t, "", again.TaxRegime)
		assert.Equal(t, "01000", again.PostalCode)
	})

	t.Run("tenants are isolated", func(t *testing.T) {
		_, err := repo.FindByTenantAndRFC(ctx, "tenant-2", "AAA010101AAA")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("duplicate natural key is rejected", func(t *testing.T) {
		dup := mdm.NewIssuer("tenant-1", mdm.CleanedRecord{mdm.FieldRFC: "AAA010101AAA"})
		assert.ErrorIs(t, repo.Save(ctx, dup), shared.ErrAlreadyExists)
	})
}

func TestGormIssuerRepository_FindFirstByTenant(t *testing.T) {
	ctx := context.Background()
	repo := NewGormIssuerRepository(newTestDB(t))

	_, err := repo.FindFirstByTenant(ctx, "empty")
	assert.ErrorIs(t, err, mdm.ErrIssuerNotFound)

	first := mdm.NewIssuer("t", mdm.CleanedRecord{mdm.FieldRFC: "AAA010101AAA"})
	second := mdm.NewIssuer("t", mdm.CleanedRecord{mdm.FieldRFC: "BBB010101BBB"})
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Save(ctx, second))
	require.NoError(t, repo.Save(ctx, first))

	got, err := repo.FindFirstByTenant(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, "AAA010101AAA", got.RFC)
}

func TestGormIssuerRepository_FindAllByTenant(t *testing.T) {
	ctx := context.Background()
	repo := NewGormIssuerRepository(newTestDB(t))

	for _, rfc := range []string{"AAA010101AA1", "AAA010101AA2", "AAA010101AA3"} {
		i := mdm.NewIssuer("t", mdm.CleanedRecord{mdm.FieldRFC: rfc})
		require.NoError(t, repo.Save(ctx, i))
	}

	page, total, err := repo.FindAllByTenant(ctx, "t", shared.Filter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)
}

func TestGormReceiverRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormReceiverRepository(newTestDB(t))

	r := mdm.NewReceiver("t", mdm.CleanedRecord{
		mdm.FieldRFC:       "XAXX010101000",
		mdm.FieldCfdiUsage: "G_03",
		mdm.FieldEmail:     "a@b.mx",
	})
	require.NoError(t, repo.Save(ctx, r))

	found, err := repo.FindByTenantAndRFC(ctx, "t", "XAXX010101000")
	require.NoError(t, err)
	assert.Equal(t, "G_03", found.CfdiUsage)
	assert.Equal(t, "a@b.mx", found.Email)

	list, total, err := repo.FindAllByTenant(ctx, "t", shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)
}

func TestGormGoldenRecords_WithoutRFC(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	issuers := NewGormIssuerRepository(db)
	receivers := NewGormReceiverRepository(db)

	for i := 0; i < 2; i++ {
		require.NoError(t, issuers.Save(ctx, mdm.NewIssuer("t", mdm.CleanedRecord{mdm.FieldBusinessName: "Sin RFC"})))
		require.NoError(t, receivers.Save(ctx, mdm.NewReceiver("t", mdm.CleanedRecord{mdm.FieldEmail: "a@b.c"})))
	}

	list, total, err := issuers.FindAllByTenant(ctx, "t", shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Empty(t, list[0].RFC)

	_, total, err = receivers.FindAllByTenant(ctx, "t", shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, err = issuers.FindByTenantAndRFC(ctx, "t", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = receivers.FindByTenantAndRFC(ctx, "t", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormProductRepository(newTestDB(t))

	t.Run("products without internal code never collide", func(t *testing.T) {
		a, _ := mdm.NewProduct("t", mdm.CleanedRecord{mdm.FieldDescription: "uno"})
		b, _ := mdm.NewProduct("t", mdm.CleanedRecord{mdm.FieldDescription: "dos"})
		require.NoError(t, repo.Save(ctx, a))
		require.NoError(t, repo.Save(ctx, b))

		_, err := repo.FindByTenantAndInternalCode(ctx, "t", "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("stores price and finds by internal code", func(t *testing.T) {
		p, warnings := mdm.NewProduct("t", mdm.CleanedRecord{
			mdm.FieldInternalCode: "SKU-1",
			mdm.FieldUnitPrice:    "12.5",
		})
		assert.Empty(t, warnings)
		require.NoError(t, repo.Save(ctx, p))

		found, err := repo.FindByTenantAndInternalCode(ctx, "t", "SKU-1")
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)
		require.True(t, found.UnitPrice.Valid)
		assert.True(t, found.UnitPrice.Decimal.Equal(decimal.RequireFromString("12.5")))
	})
}

func TestGormUnitOfWork_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	uow := NewGormUnitOfWork(db)

	err := uow.Do(ctx, func(tx mdm.Repositories) error {
		i := mdm.NewIssuer("t", mdm.CleanedRecord{mdm.FieldRFC: "AAA010101AAA"})
		if err := tx.Issuers.Save(ctx, i); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.EqualError(t, err, "abort")

	_, err = NewGormIssuerRepository(db).FindByTenantAndRFC(ctx, "t", "AAA010101AAA")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

// newMockIssuerRepository creates a GormIssuerRepository with a mocked SQL connection
func newMockIssuerRepository(t *testing.T) (*GormIssuerRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormIssuerRepository(gormDB), mock, mockDB
}

func TestGormIssuerRepository_Postgres(t *testing.T) {
	t.Run("queries by tenant and rfc", func(t *testing.T) {
		repo, mock, mockDB := newMockIssuerRepository(t)
		defer mockDB.Close()

		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "rfc", "business_name"}).
			AddRow(id.String(), "t", "AAA010101AAA", "Acme")
		mock.ExpectQuery(`SELECT \* FROM "issuers" WHERE tenant_id = \$1 AND rfc = \$2 ORDER BY .* LIMIT .*`).
			WithArgs("t", "AAA010101AAA", 1).
			WillReturnRows(rows)

		issuer, err := repo.FindByTenantAndRFC(context.Background(), "t", "AAA010101AAA")
		require.NoError(t, err)
		assert.Equal(t, id, issuer.ID)
		assert.Equal(t, "Acme", issuer.BusinessName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates driver errors", func(t *testing.T) {
		repo, mock, mockDB := newMockIssuerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "issuers"`).WillReturnError(sql.ErrConnDone)

		_, err := repo.FindByTenantAndRFC(context.Background(), "t", "X")
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})

	t.Run("maps missing rows to not found", func(t *testing.T) {
		repo, mock, mockDB := newMockIssuerRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "issuers"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByTenantAndRFC(context.Background(), "t", "X")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
