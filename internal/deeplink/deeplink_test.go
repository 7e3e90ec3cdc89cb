package deeplink

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Payload
	}{
		{"", Payload{Kind: KindDefault}},
		{"networking", Payload{Kind: KindNetworking, Raw: "networking"}},
		{"otbor", Payload{Kind: KindRecruitment, Raw: "otbor"}},
		{"event12_5_24", Payload{Kind: KindDefault, Raw: "event12_5_24", Event: "event12_5_24"}},
		{"reg_eventA_1", Payload{Kind: KindRegistration, Raw: "reg_eventA_1", Event: "eventA", LinkIndex: 1}},
		{"reg_event12_5_24_3", Payload{Kind: KindRegistration, Raw: "reg_event12_5_24_3", Event: "event12_5_24", LinkIndex: 3}},
		{"ref_event12_5_24__4242", Payload{Kind: KindReferral, Raw: "ref_event12_5_24__4242", Event: "event12_5_24", ReferrerID: 4242}},
		{"qr_77_event12_5_24", Payload{Kind: KindCheckIn, Raw: "qr_77_event12_5_24", Event: "event12_5_24", UserID: 77}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{
		"qr_",
		"qr_77",
		"qr_77_",
		"qr_abc_eventA",
		"qr_-5_eventA",
		"reg",
		"regular",
		"reg_eventA",
		"reg_eventA_x",
		"reg__1",
		"ref_eventA",
		"ref_eventA__",
		"ref_eventA__bob",
		"ref___42",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := Parse(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestParseCheckInHasPriority(t *testing.T) {
	// A check-in token for an event named like a referral still routes to check-in.
	got, err := Parse("qr_5_networking_day")
	require.NoError(t, err)
	assert.Equal(t, KindCheckIn, got.Kind)
	assert.Equal(t, "networking_day", got.Event)
}

func TestBuildersRoundTrip(t *testing.T) {
	event := "event12_5_24"

	reg, err := Parse(RegistrationLink(event, 2))
	require.NoError(t, err)
	assert.Equal(t, KindRegistration, reg.Kind)
	assert.Equal(t, event, reg.Event)
	assert.Equal(t, 2, reg.LinkIndex)

	ref, err := Parse(ReferralLink(event, 99))
	require.NoError(t, err)
	assert.Equal(t, KindReferral, ref.Kind)
	assert.Equal(t, event, ref.Event)
	assert.Equal(t, int64(99), ref.ReferrerID)

	qr, err := Parse(CheckInToken(7, event))
	require.NoError(t, err)
	assert.Equal(t, KindCheckIn, qr.Kind)
	assert.Equal(t, event, qr.Event)
	assert.Equal(t, int64(7), qr.UserID)

	assert.Equal(t, "https://t.me/clubbot?start=qr_7_event12_5_24", StartURL("clubbot", CheckInToken(7, event)))
}

func TestValidEventName(t *testing.T) {
	assert.True(t, ValidEventName("event12_5_24"))
	assert.True(t, ValidEventName("hackathon-2024"))
	assert.False(t, ValidEventName(""))
	assert.False(t, ValidEventName("a b"))
	assert.False(t, ValidEventName("event__x"))
	assert.False(t, ValidEventName("_event"))
	assert.False(t, ValidEventName("regional"))
	assert.False(t, ValidEventName("qr_day"))
	assert.False(t, ValidEventName("event_with_a_very_long_name_that_does_not_fit"))
}

func TestValidEventNameFitsCallbackData(t *testing.T) {
	longest := strings.Repeat("a", 34)
	require.True(t, ValidEventName(longest))
	assert.LessOrEqual(t, len(VerifyData(7123456789, longest, true)), 64)
	assert.LessOrEqual(t, len(VerifyData(1<<53, longest, true)), 64)

	// Fits a referral start link but not the approval buttons.
	tooLong := strings.Repeat("a", 35)
	assert.LessOrEqual(t, len(ReferralLink(tooLong, 1<<53)), 64)
	assert.False(t, ValidEventName(tooLong))
	assert.False(t, ValidEventName(strings.Repeat("a", 42)))
}

func TestEventSlug(t *testing.T) {
	date := time.Date(2024, time.May, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "event12_5_24", EventSlug(date))
	assert.True(t, ValidEventName(EventSlug(date)))
}

func TestVerifyCallback(t *testing.T) {
	data := VerifyData(15, "event12_5_24", true)
	assert.Equal(t, "verify_15_event12_5_24_allow", data)
	assert.True(t, IsVerify(data))

	v, err := ParseVerify(data)
	require.NoError(t, err)
	assert.Equal(t, Verify{UserID: 15, Event: "event12_5_24", Allow: true}, v)

	v, err = ParseVerify(VerifyData(15, "event12_5_24", false))
	require.NoError(t, err)
	assert.False(t, v.Allow)

	for _, bad := range []string{"verify_15_eventA", "verify_x_eventA_allow", "verify__allow", "reroll"} {
		_, err := ParseVerify(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestGetRefCallback(t *testing.T) {
	event, ok := ParseGetRef(GetRefData("eventA"))
	require.True(t, ok)
	assert.Equal(t, "eventA", event)

	_, ok = ParseGetRef("getref_")
	assert.False(t, ok)
	_, ok = ParseGetRef(EventYes)
	assert.False(t, ok)
}
