package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
		err    bool
	}{
		{raw: "0917 123 4567", region: "PH", want: "+639171234567"},
		{raw: "+63 917 123 4567", region: "US", want: "+639171234567"},
		{raw: "(650) 253-0000", region: "us", want: "+16502530000"},
		{raw: "", region: "PH", err: true},
		{raw: "not a number", region: "PH", err: true},
		{raw: "123", region: "PH", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
