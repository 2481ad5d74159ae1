package coupon_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/coupon"
)

type mockCouponRepository struct {
	findByIDFunc func(ctx context.Context, id int) (*coupon.Coupon, error)
	findLastFunc func(ctx context.Context) (*coupon.Coupon, error)
	saveFunc     func(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error)
	deleteFunc   func(ctx context.Context, id int) error
}

func (m *mockCouponRepository) FindAll(ctx context.Context) ([]coupon.Coupon, error) {
	return nil, nil
}

func (m *mockCouponRepository) FindByID(ctx context.Context, id int) (*coupon.Coupon, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockCouponRepository) FindByOrderIDs(ctx context.Context, orderIDs []int) ([]coupon.OrderCoupon, error) {
	return nil, nil
}

func (m *mockCouponRepository) FindLast(ctx context.Context) (*coupon.Coupon, error) {
	return m.findLastFunc(ctx)
}

func (m *mockCouponRepository) Save(ctx context.Context, c *coupon.Coupon) (*coupon.Coupon, error) {
	return m.saveFunc(ctx, c)
}

func (m *mockCouponRepository) DeleteByID(ctx context.Context, id int) error {
	return m.deleteFunc(ctx, id)
}

func passthroughSave(_ context.Context, c *coupon.Coupon) (*coupon.Coupon, error) { return c, nil }

func TestCouponService_Create(t *testing.T) {
	codePattern := regexp.MustCompile(`^[0-9A-F]{8}$`)

	tests := []struct {
		name         string
		input        coupon.Coupon
		findLastFunc func(ctx context.Context) (*coupon.Coupon, error)
		wantID       int
		wantCode     string
		wantErr      bool
	}{
		{
			name:         "first_coupon_gets_generated_code",
			input:        coupon.Coupon{DiscountAmount: 5},
			findLastFunc: func(ctx context.Context) (*coupon.Coupon, error) { return nil, coupon.ErrCouponNotFound },
			wantID:       1,
		},
		{
			name:         "keeps_supplied_code",
			input:        coupon.Coupon{Code: "WELCOME10", DiscountAmount: 10},
			findLastFunc: func(ctx context.Context) (*coupon.Coupon, error) { return &coupon.Coupon{ID: 41}, nil },
			wantID:       42,
			wantCode:     "WELCOME10",
		},
		{
			name:         "repository_failure",
			input:        coupon.Coupon{},
			findLastFunc: func(ctx context.Context) (*coupon.Coupon, error) { return nil, errors.New("db down") },
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepository{findLastFunc: tt.findLastFunc, saveFunc: passthroughSave}
			svc := coupon.NewService(repo)

			input := tt.input
			got, err := svc.Create(context.Background(), &input)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, got.Code)
			} else {
				assert.Regexp(t, codePattern, got.Code)
			}
		})
	}
}

func TestCouponService_FindByID_NotFound(t *testing.T) {
	repo := &mockCouponRepository{
		findByIDFunc: func(ctx context.Context, id int) (*coupon.Coupon, error) { return nil, coupon.ErrCouponNotFound },
	}
	svc := coupon.NewService(repo)

	_, err := svc.FindByID(context.Background(), 5)

	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, "Coupon with ID 5 not found", err.Error())
}

func TestCouponRepository_Save_LinksOrders(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := coupon.NewRepository(sqlx.NewDb(mockDB, "pgx"))

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &coupon.Coupon{ID: 2, Code: "SAVE5", DiscountAmount: 5, ExpiryDate: expiry, OrderIDs: []int{10, 11}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO coupons")).
		WithArgs(2, "SAVE5", 5.0, expiry).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders_coupons")).
		WithArgs(2, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO orders_coupons")).
		WithArgs(2, 11).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	_, err = repo.Save(context.Background(), c)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponRepository_FindByID_LoadsOrderLinks(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	repo := coupon.NewRepository(sqlx.NewDb(mockDB, "pgx"))

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM coupons WHERE coupon_id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"coupon_id", "coupon_code", "discount_amount", "expiry_date"}).
			AddRow(2, "SAVE5", 5.0, expiry))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT order_id FROM orders_coupons WHERE coupon_id = $1")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"order_id"}).AddRow(10).AddRow(11))

	got, err := repo.FindByID(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, []int{10, 11}, got.OrderIDs)
	assert.Equal(t, expiry, got.ExpiryDate)
	require.NoError(t, mock.ExpectationsWereMet())
}
