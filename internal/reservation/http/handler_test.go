package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-reservation-backend/internal/auth"
	"github.com/nekogravitycat/court-reservation-backend/internal/db/dbtest"
	"github.com/nekogravitycat/court-reservation-backend/internal/pkg/response"
	"github.com/nekogravitycat/court-reservation-backend/internal/reservation"
	"github.com/nekogravitycat/court-reservation-backend/internal/resource"
	"github.com/nekogravitycat/court-reservation-backend/internal/slot"
)

type testEnv struct {
	t          *testing.T
	router     *gin.Engine
	fx         *dbtest.Fixture
	jwt        *auth.JWTManager
	venueID    string
	activityID string
	courts     []string
}

func newTestEnv(t *testing.T, courts int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fx := dbtest.NewSQLite(t)
	window, err := slot.NewWindow(4, 22)
	require.NoError(t, err)

	svc := reservation.NewService(
		reservation.NewSQLiteRepository(fx.DB),
		resource.NewService(resource.NewSQLiteRepository(fx.DB)),
		reservation.Options{Window: window, Selector: reservation.FirstSelector{}, StoreTimeout: 5 * time.Second},
	)
	jwtManager := auth.NewJWTManager("handler-test-secret")

	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandler(svc), auth.AuthRequired(jwtManager), auth.OptionalAuth(jwtManager))

	env := &testEnv{t: t, router: r, fx: fx, jwt: jwtManager}
	env.venueID, env.activityID, env.courts = fx.Pool(t, courts)
	return env
}

func (e *testEnv) token(userID string) string {
	e.t.Helper()
	tok, err := e.jwt.GenerateAccessToken(userID, time.Hour)
	require.NoError(e.t, err)
	return tok
}

func (e *testEnv) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		require.NoError(e.t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) body(start, end string) CreateReservationBody {
	return CreateReservationBody{
		VenueID:    e.venueID,
		ActivityID: e.activityID,
		Date:       "2025-03-14",
		StartTime:  start,
		EndTime:    end,
		Status:     "Booking",
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCreateReservation(t *testing.T) {
	env := newTestEnv(t, 2)
	userID := env.fx.User(t, "player@example.com", "Player One")

	t.Run("Anonymous", func(t *testing.T) {
		w := env.do("POST", "/v1/reservations", env.body("09:00", "11:00"), "")
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		res := decode[ReservationResponse](t, w)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, env.courts[0], res.Resource.ID)
		assert.Equal(t, "Court 01", res.Resource.Name)
		assert.Equal(t, "Central Sports Hall", res.Venue.Name)
		assert.Equal(t, "Badminton", res.Activity.Name)
		assert.Nil(t, res.User)
		assert.Equal(t, "2025-03-14", res.Date)
		assert.Equal(t, "09:00", res.StartTime)
		assert.Equal(t, "11:00", res.EndTime)
		assert.Equal(t, "Booking", res.Status)
	})

	t.Run("Authenticated With Status Alias", func(t *testing.T) {
		body := env.body("09:00", "10:00")
		body.Status = "Checked-in"
		w := env.do("POST", "/v1/reservations", body, env.token(userID))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		res := decode[ReservationResponse](t, w)
		assert.Equal(t, env.courts[1], res.Resource.ID)
		assert.Equal(t, "CheckedIn", res.Status)
		require.NotNil(t, res.User)
		assert.Equal(t, userID, res.User.ID)
		assert.Equal(t, "Player One", res.User.Name)
	})

	t.Run("Pool Exhausted", func(t *testing.T) {
		w := env.do("POST", "/v1/reservations", env.body("10:00", "11:00"), "")
		assert.Equal(t, http.StatusCreated, w.Code)

		w = env.do("POST", "/v1/reservations", env.body("10:00", "11:00"), "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "no resources available for the selected time slot", decode[response.ErrorResponse](t, w).Error)
	})

	t.Run("Explicit Resource Taken", func(t *testing.T) {
		body := env.body("10:00", "12:00")
		body.ResourceID = env.courts[0]
		w := env.do("POST", "/v1/reservations", body, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "resource unavailable for requested window", decode[response.ErrorResponse](t, w).Error)
	})

	t.Run("Validation Error Names Fields", func(t *testing.T) {
		w := env.do("POST", "/v1/reservations", env.body("03:00", "05:00"), "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"start_time", "end_time"}, decode[response.ErrorResponse](t, w).Fields)

		body := env.body("09:00", "10:00")
		body.Status = "Tournament"
		w = env.do("POST", "/v1/reservations", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"status"}, decode[response.ErrorResponse](t, w).Fields)
	})

	t.Run("Malformed Body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/v1/reservations", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Token Rejected", func(t *testing.T) {
		w := env.do("POST", "/v1/reservations", env.body("12:00", "13:00"), "not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Empty Pool", func(t *testing.T) {
		body := env.body("12:00", "13:00")
		body.ActivityID = env.fx.Activity(t, "Squash")
		w := env.do("POST", "/v1/reservations", body, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAvailability(t *testing.T) {
	env := newTestEnv(t, 1)
	body := env.body("09:00", "11:00")
	require.Equal(t, http.StatusCreated, env.do("POST", "/v1/reservations", body, "").Code)

	path := "/v1/availability?venue_id=" + env.venueID + "&activity_id=" + env.activityID + "&date=2025-03-14"

	w := env.do("GET", path, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	slots := decode[[]SlotResponse](t, w)
	require.Len(t, slots, 18)
	assert.Equal(t, "04:00", slots[0].StartTime)
	assert.Equal(t, "4:00 - 5:00", slots[0].Label)
	assert.True(t, slots[0].Available)
	assert.Equal(t, 1, slots[0].AvailableResources)
	assert.False(t, slots[5].Available) // 9:00
	assert.Equal(t, 1, slots[5].BookedResources)

	w = env.do("GET", path+"&only_available=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]SlotResponse](t, w), 16)

	w = env.do("GET", "/v1/availability?venue_id="+env.venueID+"&date=2025-03-14", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"activity_id"}, decode[response.ErrorResponse](t, w).Fields)

	w = env.do("GET", path+"&only_available=maybe", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetListAndCancel(t *testing.T) {
	env := newTestEnv(t, 2)
	owner := env.fx.User(t, "owner@example.com", "Owner")
	stranger := env.fx.User(t, "stranger@example.com", "Stranger")

	w := env.do("POST", "/v1/reservations", env.body("09:00", "10:00"), env.token(owner))
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[ReservationResponse](t, w)
	require.Equal(t, http.StatusCreated, env.do("POST", "/v1/reservations", env.body("09:00", "10:00"), "").Code)

	t.Run("Get", func(t *testing.T) {
		w := env.do("GET", "/v1/reservations/"+created.ID, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, created.ID, decode[ReservationResponse](t, w).ID)

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/v1/reservations/abc", nil, "").Code)
		assert.Equal(t, http.StatusNotFound,
			env.do("GET", "/v1/reservations/0b7d1c52-1d0e-4f4f-9a51-2c1c8b1b9e00", nil, "").Code)
	})

	t.Run("List Day", func(t *testing.T) {
		w := env.do("GET", "/v1/reservations?venue_id="+env.venueID+"&date=2025-03-14&page_size=1", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[response.PageResponse[ReservationResponse]](t, w)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, 1, page.PageSize)
		assert.Len(t, page.Items, 1)
		assert.True(t, page.HasMore)

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/v1/reservations?date=14-03-2025", nil, "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/v1/reservations?venue_id=x", nil, "").Code)
	})

	t.Run("Mine", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, env.do("GET", "/v1/users/me/reservations", nil, "").Code)

		w := env.do("GET", "/v1/users/me/reservations", nil, env.token(owner))
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[response.PageResponse[ReservationResponse]](t, w)
		assert.Equal(t, 1, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.False(t, page.HasMore)
		require.Len(t, page.Items, 1)
		assert.Equal(t, created.ID, page.Items[0].ID)
	})

	t.Run("Cancel", func(t *testing.T) {
		path := "/v1/reservations/" + created.ID
		assert.Equal(t, http.StatusUnauthorized, env.do("DELETE", path, nil, "").Code)
		assert.Equal(t, http.StatusForbidden, env.do("DELETE", path, nil, env.token(stranger)).Code)
		assert.Equal(t, http.StatusNoContent, env.do("DELETE", path, nil, env.token(owner)).Code)
		assert.Equal(t, http.StatusNotFound, env.do("GET", path, nil, "").Code)
	})
}

func TestCreateReservation_LegacyFieldNames(t *testing.T) {
	env := newTestEnv(t, 2)

	w := env.do("POST", "/v1/reservations", map[string]string{
		"venue_id":     env.venueID,
		"activity_id":  env.activityID,
		"equipment_id": env.courts[1],
		"date":         "2025-03-14",
		"start_time":   "09:00",
		"end_time":     "10:00",
		"category":     "Blocked / Tournament",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	res := decode[ReservationResponse](t, w)
	assert.Equal(t, env.courts[1], res.Resource.ID)
	assert.Equal(t, "Blocked", res.Status)

	body := env.body("11:00", "12:00")
	body.ResourceID = env.courts[0]
	body.Category = "Coaching"
	body.EquipmentID = env.courts[1]
	w = env.do("POST", "/v1/reservations", body, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	res = decode[ReservationResponse](t, w)
	assert.Equal(t, env.courts[0], res.Resource.ID)
	assert.Equal(t, "Booking", res.Status)
}

func TestCanonicalStatus(t *testing.T) {
	cases := map[string]string{
		"Reservation":          "Booking",
		"Checked-in":           "CheckedIn",
		"Checked":              "CheckedIn",
		"Blocked / Tournament": "Blocked",
		"Payment Pending":      "PendingPayment",
		"Coaching":             "Coaching",
		"whatever":             "whatever",
	}
	for in, want := range cases {
		assert.Equal(t, want, canonicalStatus(in), in)
	}
}
