package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	apperrors "github.com/onurmutlu/flirtmarket/pkg/app/errors"
	"github.com/onurmutlu/flirtmarket/pkg/auth"
	"github.com/onurmutlu/flirtmarket/pkg/referral"
	"github.com/onurmutlu/flirtmarket/pkg/user"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) AwardBonus(ctx context.Context, referrerID, referredID int64) (*referral.Bonus, error) {
	args := m.Called(ctx, referrerID, referredID)
	bonus, _ := args.Get(0).(*referral.Bonus)
	return bonus, args.Error(1)
}

func (m *serviceMock) ApplyCode(ctx context.Context, userID int64, code string) (*referral.Bonus, error) {
	args := m.Called(ctx, userID, code)
	bonus, _ := args.Get(0).(*referral.Bonus)
	return bonus, args.Error(1)
}

func (m *serviceMock) Stats(ctx context.Context, userID int64) (*referral.Stats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*referral.Stats)
	return stats, args.Error(1)
}

func newReferralTestServer(svc Service, userID int64) http.Handler {
	r := chi.NewRouter()
	if userID > 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := auth.WithAuthInfo(req.Context(), &auth.AuthInfo{UserID: userID, Role: user.RoleRegular})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	RegisterRoutes(r, svc, zap.NewNop())
	return r
}

func TestStatsHTTP(t *testing.T) {
	svc := new(serviceMock)
	svc.On("Stats", mock.Anything, int64(5)).
		Return(&referral.Stats{ReferralCode: "ABCDEF1234", Referred: 2, CoinsEarned: 100}, nil).Once()

	rec := httptest.NewRecorder()
	newReferralTestServer(svc, 5).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/referrals", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got referral.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode response JSON: %v", err)
	}
	if got.ReferralCode != "ABCDEF1234" || got.Referred != 2 || got.CoinsEarned != 100 {
		t.Fatalf("unexpected stats: %+v", got)
	}
	svc.AssertExpectations(t)
}

func TestApplyCodeHTTP(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		userID int64
		setup  func(*serviceMock)
		status int
	}{
		{
			name:   "applied",
			body:   `{"code":"ABCDEF1234"}`,
			userID: 5,
			setup: func(m *serviceMock) {
				m.On("ApplyCode", mock.Anything, int64(5), "ABCDEF1234").
					Return(&referral.Bonus{ID: 1, ReferrerID: 2, ReferredID: 5, Amount: 50}, nil).Once()
			},
			status: http.StatusOK,
		},
		{
			name:   "already referred",
			body:   `{"code":"ABCDEF1234"}`,
			userID: 5,
			setup: func(m *serviceMock) {
				m.On("ApplyCode", mock.Anything, int64(5), "ABCDEF1234").
					Return(nil, apperrors.ConflictError(nil, "referral already applied")).Once()
			},
			status: http.StatusConflict,
		},
		{
			name:   "missing code",
			body:   `{}`,
			userID: 5,
			status: http.StatusBadRequest,
		},
		{
			name:   "unauthenticated",
			body:   `{"code":"ABCDEF1234"}`,
			status: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(serviceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			req := httptest.NewRequest(http.MethodPost, "/referrals/apply", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			newReferralTestServer(svc, tt.userID).ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, rec.Code)
			}
			svc.AssertExpectations(t)
		})
	}
}
