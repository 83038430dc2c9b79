package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-manager/pkg/validate"
)

type draft struct {
	Title string `json:"title" validate:"required"`
	Year  int    `json:"published_year" validate:"required"`
	Note  string `json:"note,omitempty"`
	Kind  string `json:"kind" validate:"omitempty,oneof=a b"`
}

func TestCustomValidator_MissingFields(t *testing.T) {
	t.Parallel()
	v := validate.NewCustomValidator()

	tests := []struct {
		name string
		in   draft
		want []string
	}{
		{name: "complete", in: draft{Title: "Dune", Year: 1965}, want: nil},
		{name: "empty", in: draft{}, want: []string{"title", "published_year"}},
		{name: "year only", in: draft{Title: "Dune"}, want: []string{"published_year"}},
		{name: "other rules ignored", in: draft{Title: "Dune", Year: 1965, Kind: "z"}, want: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, v.MissingFields(tt.in))
		})
	}
}

func TestCustomValidator_Validate(t *testing.T) {
	t.Parallel()
	v := validate.NewCustomValidator()
	require.NoError(t, v.Validate(draft{Title: "Dune", Year: 1965, Kind: "a"}))
	err := v.Validate(draft{Title: "Dune", Year: 1965, Kind: "z"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "kind")
}
