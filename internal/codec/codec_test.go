package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theonlysinjin/team-retro/internal/model"
)

func TestDeriveKey_CaseInsensitive(t *testing.T) {
	assert.Equal(t, DeriveKey("ABC234"), DeriveKey("abc234"))
	assert.Equal(t, DeriveKey("ABC234"), DeriveKey(" abc234 "))
	assert.NotEqual(t, DeriveKey("ABC234"), DeriveKey("ABC235"))
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveKey("ABC234")
	cat := model.CategoryTodo
	in := model.CardPayload{Content: "Ship <it> & \"soon\"", Color: "#fef08a", Category: &cat}

	ct, err := Encrypt(key, in)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "v1."))
	assert.NotContains(t, ct, "Ship")

	var out model.CardPayload
	require.NoError(t, Decrypt(key, ct, &out))
	assert.Equal(t, in, out)
}

func TestEncrypt_FreshNonce(t *testing.T) {
	key := DeriveKey("ABC234")
	a, err := Encrypt(key, model.CardPayload{Content: "same"})
	require.NoError(t, err)
	b, err := Encrypt(key, model.CardPayload{Content: "same"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecrypt_Failures(t *testing.T) {
	key := DeriveKey("ABC234")
	ct, err := Encrypt(key, model.CardPayload{Content: "secret"})
	require.NoError(t, err)

	body := strings.TrimPrefix(ct, "v1.")
	flipped := []byte(body)
	if flipped[20] == 'A' {
		flipped[20] = 'B'
	} else {
		flipped[20] = 'A'
	}

	tests := []struct {
		name string
		key  Key
		ct   string
	}{
		{"wrong key", DeriveKey("XYZ789"), ct},
		{"tampered", key, "v1." + string(flipped)},
		{"truncated", key, ct[:10]},
		{"no version", key, body},
		{"not base64", key, "v1.!!!!"},
		{"empty", key, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out model.CardPayload
			err := Decrypt(tt.key, tt.ct, &out)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecrypt)
			assert.Empty(t, out.Content)
		})
	}
}

func TestOpenCard(t *testing.T) {
	key := DeriveKey("ABC234")

	t.Run("valid without category", func(t *testing.T) {
		ct, err := SealCard(key, model.CardPayload{Content: "hello", Color: "#bfdbfe"})
		require.NoError(t, err)

		p, err := OpenCard(key, ct)
		require.NoError(t, err)
		assert.Equal(t, "hello", p.Content)
		assert.Nil(t, p.Category)
	})

	t.Run("unknown category rejected", func(t *testing.T) {
		ct, err := Encrypt(key, map[string]any{"content": "x", "color": "#fff", "category": "meh"})
		require.NoError(t, err)

		_, err = OpenCard(key, ct)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("missing content rejected", func(t *testing.T) {
		ct, err := Encrypt(key, map[string]any{"color": "#fff"})
		require.NoError(t, err)

		_, err = OpenCard(key, ct)
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})

	t.Run("extra fields tolerated", func(t *testing.T) {
		ct, err := Encrypt(key, map[string]any{"content": "x", "color": "#fff", "emoji": "🎉"})
		require.NoError(t, err)

		p, err := OpenCard(key, ct)
		require.NoError(t, err)
		assert.Equal(t, "x", p.Content)
	})

	t.Run("wrong key", func(t *testing.T) {
		ct, err := SealCard(key, model.CardPayload{Content: "x", Color: "#fff"})
		require.NoError(t, err)

		_, err = OpenCard(DeriveKey("QQQQQQ"), ct)
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestSealCard_RoundTrip(t *testing.T) {
	key := DeriveKey("ABC234")
	todo := model.CategoryTodo

	contents := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"unicode", "日本語 🎉 é"},
		{"nul", "a\x00b"},
		{"escapes", "quotes\" and \\ backslashes\n\ttab </script>"},
	}
	categories := []struct {
		name     string
		category *model.Category
	}{
		{"no category", nil},
		{"category", &todo},
	}

	for _, tc := range contents {
		for _, cc := range categories {
			t.Run(tc.name+"/"+cc.name, func(t *testing.T) {
				in := model.CardPayload{Content: tc.content, Color: "#bfdbfe", Category: cc.category}

				ct, err := SealCard(key, in)
				require.NoError(t, err)

				out, err := OpenCard(key, ct)
				require.NoError(t, err)
				assert.Equal(t, in, out)
			})
		}
	}
}

func TestOpenGroup(t *testing.T) {
	key := DeriveKey("ABC234")
	name := "Deploys"

	ct, err := SealGroup(key, model.GroupPayload{Name: &name})
	require.NoError(t, err)
	p, err := OpenGroup(key, ct)
	require.NoError(t, err)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Deploys", *p.Name)
	assert.Nil(t, p.Color)

	ct, err = SealGroup(key, model.GroupPayload{})
	require.NoError(t, err)
	p, err = OpenGroup(key, ct)
	require.NoError(t, err)
	assert.Nil(t, p.Name)

	ct, err = Encrypt(key, map[string]any{"name": 42})
	require.NoError(t, err)
	_, err = OpenGroup(key, ct)
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestKeyring(t *testing.T) {
	var kr Keyring

	_, err := kr.Key()
	assert.ErrorIs(t, err, ErrKeyNotReady)
	assert.False(t, kr.Ready())

	kr.SetCode("abc234")
	k, err := kr.Key()
	require.NoError(t, err)
	assert.Equal(t, DeriveKey("ABC234"), k)
	assert.Equal(t, "ABC234", kr.Code())

	kr.SetCode("XYZ789")
	k, err = kr.Key()
	require.NoError(t, err)
	assert.Equal(t, DeriveKey("XYZ789"), k)

	kr.Reset()
	_, err = kr.Key()
	assert.ErrorIs(t, err, ErrKeyNotReady)
	assert.Empty(t, kr.Code())
}

func TestDisplayColor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Alice", "#ef4444"},
		{"Bob", "#ec4899"},
		{"Carol", "#f59e0b"},
		{"", "#ef4444"},
		{"\U0001F600 Dan", "#8b5cf6"},
		// Long enough that the accumulator leaves the 32-bit range.
		{"Alexander", "#10b981"},
		{"Christopher", "#f59e0b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayColor(tt.name))
			assert.Equal(t, DisplayColor(tt.name), DisplayColor(tt.name))
		})
	}
}

func TestDisplayColor_NormalizesName(t *testing.T) {
	composed := "Zoë"
	decomposed := "Zoë"
	assert.Equal(t, DisplayColor(composed), DisplayColor(decomposed))
	assert.Equal(t, "#14b8a6", DisplayColor(composed))
}
