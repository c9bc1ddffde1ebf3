package nostr_notifier_test

import (
	"context"
	"testing"

	nostr_notifier "github.com/ark-network/ark-dice/internal/infrastructure/notifier/nostr"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	sk := nostr.GeneratePrivateKey()
	pk, err := nostr.GetPublicKey(sk)
	require.NoError(t, err)

	valid, err := nip19.EncodeProfile(pk, []string{"wss://relay.example.com"})
	require.NoError(t, err)
	noRelays, err := nip19.EncodeProfile(pk, nil)
	require.NoError(t, err)
	npub, err := nip19.EncodePublicKey(pk)
	require.NoError(t, err)

	profile, err := nostr_notifier.ParseProfile(valid)
	require.NoError(t, err)
	require.Equal(t, pk, profile.PublicKey)
	require.Equal(t, []string{"wss://relay.example.com"}, profile.Relays)

	fixtures := []struct {
		to          any
		expectedErr string
	}{
		{
			to:          42,
			expectedErr: "recipient must be a string (NIP-19 encoded nostr profile)",
		},
		{
			to:          npub,
			expectedErr: "invalid NIP-19 prefix: npub",
		},
		{
			to:          noRelays,
			expectedErr: "invalid nostr profile: at least one relay is required",
		},
	}

	for _, f := range fixtures {
		_, err := nostr_notifier.ParseProfile(f.to)
		require.EqualError(t, err, f.expectedErr)

		err = nostr_notifier.New().Notify(context.Background(), f.to, "hello")
		require.EqualError(t, err, f.expectedErr)
	}
}
