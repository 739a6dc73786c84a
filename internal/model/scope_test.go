package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func zonePtr(id uint) *uint {
	return &id
}

func complaintOwnedBy(userID uuid.UUID, zoneID *uint) *model.Complaint {
	return &model.Complaint{
		ID:     uuid.New(),
		UserID: userID,
		Owner:  &model.User{ID: userID, Role: model.UserRoleCitizen, ZoneID: zoneID},
	}
}

func TestResolveScope(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		principal model.Principal
		want      model.Scope
		wantErr   error
	}{
		{
			name:      "super admin is unrestricted",
			principal: model.Principal{UserID: userID, Role: model.UserRoleSuperAdmin},
			want:      model.UnrestrictedScope{},
		},
		{
			name:      "admin is limited to own zone",
			principal: model.Principal{UserID: userID, Role: model.UserRoleAdmin, ZoneID: zonePtr(7)},
			want:      model.ZoneScope{ZoneID: 7},
		},
		{
			name:      "admin without zone sees nothing",
			principal: model.Principal{UserID: userID, Role: model.UserRoleAdmin},
			want:      model.NoneScope{},
		},
		{
			name:      "citizen is limited to own complaints",
			principal: model.Principal{UserID: userID, Role: model.UserRoleCitizen, ZoneID: zonePtr(3)},
			want:      model.OwnerScope{UserID: userID},
		},
		{
			name:      "unknown role is rejected",
			principal: model.Principal{UserID: userID, Role: model.UserRole("AUDITOR")},
			wantErr:   model.ErrScopeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := model.ResolveScope(tt.principal)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, scope)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, scope)
		})
	}
}

func TestScopeMatches(t *testing.T) {
	citizen := uuid.New()
	other := uuid.New()

	inZone1 := complaintOwnedBy(citizen, zonePtr(1))
	inZone2 := complaintOwnedBy(other, zonePtr(2))
	noZone := complaintOwnedBy(other, nil)

	t.Run("unrestricted", func(t *testing.T) {
		scope := model.UnrestrictedScope{}
		assert.True(t, scope.Matches(inZone1))
		assert.True(t, scope.Matches(inZone2))
		assert.True(t, scope.Matches(noZone))
		assert.False(t, scope.Matches(nil))
	})

	t.Run("zone", func(t *testing.T) {
		scope := model.ZoneScope{ZoneID: 1}
		assert.True(t, scope.Matches(inZone1))
		assert.False(t, scope.Matches(inZone2))
		assert.False(t, scope.Matches(noZone))
	})

	t.Run("zone follows owner's current zone", func(t *testing.T) {
		moved := complaintOwnedBy(citizen, zonePtr(1))
		moved.Owner.ZoneID = zonePtr(2)
		assert.False(t, model.ZoneScope{ZoneID: 1}.Matches(moved))
		assert.True(t, model.ZoneScope{ZoneID: 2}.Matches(moved))
	})

	t.Run("zone without loaded owner", func(t *testing.T) {
		bare := &model.Complaint{ID: uuid.New(), UserID: citizen}
		assert.False(t, model.ZoneScope{ZoneID: 1}.Matches(bare))
	})

	t.Run("owner", func(t *testing.T) {
		scope := model.OwnerScope{UserID: citizen}
		assert.True(t, scope.Matches(inZone1))
		assert.False(t, scope.Matches(inZone2))
		assert.False(t, model.OwnerScope{}.Matches(inZone1))
	})

	t.Run("none", func(t *testing.T) {
		scope := model.NoneScope{}
		assert.False(t, scope.Matches(inZone1))
		assert.False(t, scope.Matches(inZone2))
	})
}
