package middleware

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/presensia/presensia-backend-go/internal/handler/http/response"
)

// DeviceKeyRequired authenticates kiosk hardware with a shared device key
// carried in the X-Device-Key header, checked against a bcrypt hash. An
// empty hash disables the check.
func DeviceKeyRequired(deviceKeyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			if deviceKeyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-Device-Key")
			if key == "" {
				response.Unauthorized(w, "Missing device key")
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(deviceKeyHash), []byte(key)); err != nil {
				response.Unauthorized(w, "Invalid device key")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
