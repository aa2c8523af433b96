package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"nil", nil, http.StatusInternalServerError, InternalServerError},
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), http.StatusNotFound, ResourceNotFound},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, RequestTimeout},
		{"redis down", errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), http.StatusServiceUnavailable, ServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "cart")
			assert.Equal(t, tt.status, info.Status)
			assert.Equal(t, tt.code, info.Code)
			assert.NotContains(t, info.Message, "127.0.0.1")
		})
	}
}
