package restaurant_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "pgx"), mock
}

var (
	restaurantCols = []string{"restaurant_id", "restaurant_name", "restaurant_address", "restaurant_phone"}
	menuItemCols   = []string{"item_id", "restaurant_id", "item_name", "item_description", "item_price"}
)

func TestRestaurantRepository_FindByID_LoadsMenu(t *testing.T) {
	conn, mock := newMockDB(t)
	repo := restaurant.NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("FROM restaurants WHERE restaurant_id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(restaurantCols).AddRow(3, "Luigi's", "12 Via Roma", "5551234567"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM menu_items WHERE restaurant_id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows(menuItemCols).
			AddRow(7, 3, "Margherita", "Tomato and basil", "9.50").
			AddRow(8, 3, "Calzone", "Folded pizza", "11.00"))

	got, err := repo.FindByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "Luigi's", got.Name)
	require.Len(t, got.MenuItems, 2)
	assert.InDelta(t, 9.5, got.MenuItems[0].Price, 0.001)
	assert.Equal(t, "Calzone", got.MenuItems[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRestaurantRepository_FindLast_Empty(t *testing.T) {
	conn, mock := newMockDB(t)
	repo := restaurant.NewRepository(conn)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY restaurant_id DESC LIMIT 1")).
		WillReturnRows(sqlmock.NewRows(restaurantCols))

	_, err := repo.FindLast(context.Background())

	require.ErrorIs(t, err, restaurant.ErrRestaurantNotFound)
}

func TestRestaurantRepository_DeleteByID_Cascades(t *testing.T) {
	conn, mock := newMockDB(t)
	repo := restaurant.NewRepository(conn)

	mock.ExpectBegin()
	for _, fragment := range []string{
		"DELETE FROM orders_coupons WHERE order_id IN",
		"DELETE FROM ratings WHERE order_id IN",
		"DELETE FROM order_items WHERE order_id IN",
		"DELETE FROM orders WHERE restaurant_id = $1",
		"DELETE FROM ratings WHERE restaurant_id = $1",
		"DELETE FROM order_items WHERE item_id IN",
		"DELETE FROM menu_items WHERE restaurant_id = $1",
	} {
		mock.ExpectExec(regexp.QuoteMeta(fragment)).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM restaurants WHERE restaurant_id = $1")).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByID(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMenuItemRepository_DeleteByID_Missing(t *testing.T) {
	conn, mock := newMockDB(t)
	repo := restaurant.NewMenuItemRepository(conn)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM order_items WHERE item_id = $1")).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM menu_items WHERE item_id = $1")).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.DeleteByID(context.Background(), 42)

	require.ErrorIs(t, err, restaurant.ErrMenuItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
