package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
	"github.com/vasiliy-maslov/food-delivery/internal/customer"
	handler "github.com/vasiliy-maslov/food-delivery/internal/handler/http"
	"github.com/vasiliy-maslov/food-delivery/internal/restaurant"
)

func TestRestaurantHandler_handleCreateRestaurant(t *testing.T) {
	mockService := new(MockRestaurantService)
	h := handler.NewRestaurantHandler(mockService)

	created := &restaurant.Restaurant{
		ID:      5,
		Name:    "Luigi's",
		Address: "12 Via Roma",
		Phone:   "5551234567",
		MenuItems: []restaurant.MenuItem{
			{ID: 1, RestaurantID: 5, Name: "Margherita", Description: "Tomato and basil", Price: 9.5},
		},
	}
	mockService.On("Create", mock.Anything, mock.MatchedBy(func(r *restaurant.Restaurant) bool {
		return r.Name == "Luigi's" && len(r.MenuItems) == 1 && r.MenuItems[0].Price == 9.5
	})).Return(created, nil).Once()

	body := `{"name":"Luigi's","address":"12 Via Roma","phone":"5551234567",
		"menuItems":[{"name":"Margherita","description":"Tomato and basil","price":9.50}]}`
	rr := serve(h, httptest.NewRequest(http.MethodPost, "/restaurants", bytes.NewBufferString(body)))

	require.Equal(t, http.StatusCreated, rr.Code)
	var actual restaurant.Restaurant
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))
	assert.Equal(t, *created, actual)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_handleAddMenuItem_Validation(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		wantErrors []string
	}{
		{
			name:       "too_many_integer_digits",
			body:       `{"name":"Feast","description":"Everything","price":123456.5}`,
			wantErrors: []string{"Price must be a valid number with up to 5 digits in the integer part and 2 digits in the fractional part"},
		},
		{
			name:       "too_many_fraction_digits",
			body:       `{"name":"Feast","description":"Everything","price":9.999}`,
			wantErrors: []string{"Price must be a valid number with up to 5 digits in the integer part and 2 digits in the fractional part"},
		},
		{
			name: "missing_fields",
			body: `{"price":0}`,
			wantErrors: []string{
				"Name is mandatory",
				"Description is mandatory",
				"Price is mandatory",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockRestaurantService)
			h := handler.NewRestaurantHandler(mockService)

			rr := serve(h, httptest.NewRequest(http.MethodPost, "/restaurants/5/menu", bytes.NewBufferString(tc.body)))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.ElementsMatch(t, tc.wantErrors, decodeError(t, rr).Errors)
			mockService.AssertNotCalled(t, "SaveMenuItem", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRestaurantHandler_handleUpdateMenuItem_NotFound(t *testing.T) {
	mockService := new(MockRestaurantService)
	h := handler.NewRestaurantHandler(mockService)

	mockService.On("UpdateMenuItem", mock.Anything, 5, 4, mock.MatchedBy(func(item *restaurant.MenuItem) bool {
		return item.Name == "" && item.Price == 12.25
	})).Return(nil, apperror.NotFound(restaurant.ErrMenuItemNotFound, "Item not found at ID %d", 4)).Once()

	rr := serve(h, httptest.NewRequest(http.MethodPut, "/restaurants/5/menu/4", bytes.NewBufferString(`{"price":12.25}`)))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Item not found at ID 4", decodeError(t, rr).Message)
	mockService.AssertExpectations(t)
}

func TestRestaurantHandler_handleGetDeliveryAreas(t *testing.T) {
	mockService := new(MockRestaurantService)
	h := handler.NewRestaurantHandler(mockService)

	a1 := customer.DeliveryAddress{ID: 1, CustomerID: 1, City: "Springfield"}
	a2 := customer.DeliveryAddress{ID: 2, CustomerID: 1, City: "Shelbyville"}
	mockService.On("DeliveryAddressesServedByID", mock.Anything, 3).
		Return([]customer.DeliveryAddress{a1, a2, a1, a2}, nil).
		Once()

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/restaurants/3/delivery-areas", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var actual []customer.DeliveryAddress
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&actual))
	assert.Equal(t, []customer.DeliveryAddress{a1, a2, a1, a2}, actual)
}

func TestRestaurantHandler_handleDeleteRestaurant(t *testing.T) {
	testCases := []struct {
		name       string
		serviceErr error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{
			name:       "missing",
			serviceErr: apperror.NotFound(restaurant.ErrRestaurantNotFound, "Restaurant with ID %d not found", 3),
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := new(MockRestaurantService)
			h := handler.NewRestaurantHandler(mockService)
			mockService.On("DeleteByID", mock.Anything, 3).Return(tc.serviceErr).Once()

			rr := serve(h, httptest.NewRequest(http.MethodDelete, "/restaurants/3", nil))

			assert.Equal(t, tc.wantStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}
