package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/swapcheck/internal/ir"
)

func TestEngineProfileRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p := testProfile("EJ251", ir.Phase2)
	p.Notes = "SOHC <2.5> & friends"
	require.NoError(t, s.PutEngineProfile(ctx, p))

	got, err := s.GetEngineProfile(ctx, "ej251")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPutEngineProfileReplaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutEngineProfile(ctx, testProfile("EJ251", ir.Phase1)))
	require.NoError(t, s.PutEngineProfile(ctx, testProfile("ej251", ir.Phase2)))

	all, err := s.ListEngineProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, ir.Phase2, all[0].Phase)
	assert.Equal(t, "ej251", all[0].Code)
}

func TestPutEngineProfileRequiresCode(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.PutEngineProfile(context.Background(), ir.EngineProfile{}))
}

func TestGetEngineProfileNotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetEngineProfile(context.Background(), "EZ30")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEngineProfilesOrdered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, code := range []string{"FB25", "EJ22E", "ej205", "EJ257"} {
		require.NoError(t, s.PutEngineProfile(ctx, testProfile(code, ir.Phase2)))
	}

	all, err := s.ListEngineProfiles(ctx)
	require.NoError(t, err)

	var codes []string
	for _, p := range all {
		codes = append(codes, p.Code)
	}
	assert.Equal(t, []string{"ej205", "EJ22E", "EJ257", "FB25"}, codes)
}

func TestListEngineProfilesEmpty(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ListEngineProfiles(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestVehicleProfileRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	v := ir.VehicleProfile{
		Model:          "Impreza",
		Year:           1998,
		Region:         "US",
		HasImmobilizer: true,
		ChassisPhase:   ir.Phase1,
		ExpectedBus:    ir.EcuBusNonCan,
	}
	require.NoError(t, s.PutVehicleProfile(ctx, v))

	got, err := s.GetVehicleProfile(ctx, "impreza-1998-us")
	require.NoError(t, err)

	v.ID = "Impreza-1998-US"
	assert.Equal(t, v, got)

	all, err := s.ListVehicleProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.VehicleProfile{v}, all)
}

func TestPutVehicleProfileRequiresIdentity(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.PutVehicleProfile(context.Background(), ir.VehicleProfile{Year: 2001}))
}

func TestGetVehicleProfileNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetVehicleProfile(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func sampleRules() []ir.CompatibilityRule {
	return []ir.CompatibilityRule{
		{
			ID:   "phase",
			When: &ir.RuleCondition{Donor: ir.Criteria{"phase": "Phase2"}, Target: ir.Criteria{"phase": "Phase1"}},
			Effect: &ir.RuleEffect{
				Level:      ir.LevelPtr(ir.LevelMajorMods),
				ScoreDelta: -50,
				AddWarning: "Phase mismatch",
				AddChange:  &ir.ChangeItem{Title: "Trigger", Details: "Swap", Severity: ir.SeverityHigh},
			},
		},
		{ID: "empty-donor", When: &ir.RuleCondition{Donor: ir.Criteria{}}, Effect: &ir.RuleEffect{ScoreDelta: -1}},
		{ID: "no-when", Effect: &ir.RuleEffect{}},
		{ID: "no-effect", When: &ir.RuleCondition{Target: ir.Criteria{"code": "EJ22E"}}},
	}
}

func TestReplaceRulesRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rules := sampleRules()
	require.NoError(t, s.ReplaceRules(ctx, rules))

	got, err := s.ListRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, rules, got)
	assert.Equal(t, ir.MustRuleSetHash(rules), ir.MustRuleSetHash(got))
}

func TestReplaceRulesReplacesEverything(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceRules(ctx, sampleRules()))
	require.NoError(t, s.ReplaceRules(ctx, sampleRules()[:1]))

	got, err := s.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "phase", got[0].ID)

	require.NoError(t, s.ReplaceRules(ctx, nil))
	got, err = s.ListRules(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
