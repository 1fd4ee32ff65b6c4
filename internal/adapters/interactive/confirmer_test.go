package interactive

import (
	"context"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-migrate/internal/domain/config"
)

func TestConfirmerAdapter(t *testing.T) {
	tests := []struct {
		name      string
		answer    string
		askErr    error
		confirmed bool
		wantErr   bool
	}{
		{name: "yes", answer: "y", confirmed: true},
		{name: "long yes", answer: "yes", confirmed: true},
		{name: "empty answer", answer: "", confirmed: false},
		{name: "no", askErr: promptui.ErrAbort, confirmed: false},
		{name: "interrupted", askErr: promptui.ErrInterrupt, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asked string
			c := NewConfirmerAdapter(&config.RuntimeConfig{})
			c.ask = func(label string) (string, error) {
				asked = label
				return tt.answer, tt.askErr
			}

			ok, err := c.Confirm(context.Background(), "Deploy 4 contracts to sepolia")
			assert.Equal(t, "Deploy 4 contracts to sepolia", asked)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.confirmed, ok)
		})
	}

	t.Run("non-interactive never prompts", func(t *testing.T) {
		c := NewConfirmerAdapter(&config.RuntimeConfig{NonInteractive: true})
		c.ask = func(string) (string, error) {
			t.Fatal("prompted in non-interactive mode")
			return "", nil
		}
		_, err := c.Confirm(context.Background(), "Deploy")
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := NewConfirmerAdapter(&config.RuntimeConfig{})
		_, err := c.Confirm(ctx, "Deploy")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
