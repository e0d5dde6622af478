package header

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/fluxo/csv-writer/pkg/errs"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		spec   Spec
		want   []Column
		titled bool
	}{
		{
			name: "ids only",
			spec: IDs("name", "lang"),
			want: []Column{{ID: "name", Title: "name"}, {ID: "lang", Title: "lang"}},
		},
		{
			name: "reverse order",
			spec: IDs("lang", "name"),
			want: []Column{{ID: "lang", Title: "lang"}, {ID: "name", Title: "name"}},
		},
		{
			name:   "titled",
			spec:   Spec{Titled("name", "NAME"), Titled("lang", "LANGUAGE")},
			want:   []Column{{ID: "name", Title: "NAME"}, {ID: "lang", Title: "LANGUAGE"}},
			titled: true,
		},
		{
			name: "case sensitive ids",
			spec: IDs("Name", "name"),
			want: []Column{{ID: "Name", Title: "Name"}, {ID: "name", Title: "name"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Resolve(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, h.Columns)
			assert.Equal(t, tt.titled, h.Titled)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{name: "nil", spec: nil},
		{name: "empty", spec: Spec{}},
		{name: "mixed shapes", spec: Spec{ID("name"), Titled("lang", "LANGUAGE")}},
		{name: "missing id", spec: Spec{Titled("", "NAME")}},
		{name: "duplicate id", spec: IDs("name", "lang", "name")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Resolve(tt.spec)
			assert.Nil(t, h)
			assert.ErrorIs(t, err, errs.ErrConfiguration)
		})
	}
}

func TestHeader_Accessors(t *testing.T) {
	h, err := Resolve(Spec{Titled("name", "NAME"), Titled("lang", "LANGUAGE")})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "lang"}, h.IDs())
	assert.Equal(t, []string{"NAME", "LANGUAGE"}, h.Titles())
}

func TestParseFlags(t *testing.T) {
	spec := ParseFlags([]string{"name=NAME", " lang =LANGUAGE"})
	h, err := Resolve(spec)
	require.NoError(t, err)
	assert.True(t, h.Titled)
	assert.Equal(t, []Column{{ID: "name", Title: "NAME"}, {ID: "lang", Title: "LANGUAGE"}}, h.Columns)

	spec = ParseFlags([]string{"name", "lang"})
	h, err = Resolve(spec)
	require.NoError(t, err)
	assert.False(t, h.Titled)
}

func TestSpec_UnmarshalYAML(t *testing.T) {
	t.Run("ids", func(t *testing.T) {
		var spec Spec
		require.NoError(t, yaml.Unmarshal([]byte("[name, lang]"), &spec))
		assert.Equal(t, IDs("name", "lang"), spec)
	})

	t.Run("titled", func(t *testing.T) {
		var spec Spec
		src := "- id: name\n  title: NAME\n- id: lang\n"
		require.NoError(t, yaml.Unmarshal([]byte(src), &spec))
		assert.Equal(t, Spec{Titled("name", "NAME"), Titled("lang", "lang")}, spec)
	})

	t.Run("mixed is rejected by resolve", func(t *testing.T) {
		var spec Spec
		src := "- name\n- id: lang\n  title: LANGUAGE\n"
		require.NoError(t, yaml.Unmarshal([]byte(src), &spec))
		_, err := Resolve(spec)
		assert.ErrorIs(t, err, errs.ErrConfiguration)
	})

	t.Run("not a sequence", func(t *testing.T) {
		var spec Spec
		assert.Error(t, yaml.Unmarshal([]byte("name: lang"), &spec))
	})
}
