package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserID(t *testing.T) {
	assert.Empty(t, UserID(context.Background()))

	ctx := WithUserID(context.Background(), "u_1")
	assert.Equal(t, "u_1", UserID(ctx))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "", want: ""},
		{header: "Bearer abc.def", want: "abc.def"},
		{header: "bearer  abc ", want: "abc"},
		{header: "Basic dXNlcg==", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "abc.def", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := BearerToken(tt.header)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedHeader)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
