package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cruxauth/authsvc/visionpb"
)

// Router builds the HTTP mux: four auth endpoints backed by the broker
// RPC surface, and a vision endpoint backed by the gRPC vision client,
// with the vision endpoint behind the Admission Guard.
type Router struct {
	identity *IdentityClient
	vision   VisionCaller
	guard    *AdmissionGuard
}

// VisionCaller is the subset of vision.Client the router depends on, so
// tests can substitute a double without dialing a real backend.
type VisionCaller interface {
	ProcessImage(ctx context.Context, image []byte, model visionpb.ModelType) (string, error)
	ProcessImageBatch(ctx context.Context, images [][]byte, model visionpb.ModelType) ([]string, error)
}

func NewRouter(identity *IdentityClient, vision VisionCaller, guard *AdmissionGuard) *Router {
	return &Router{identity: identity, vision: vision, guard: guard}
}

func (rt *Router) Mux() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/signup", rt.handleSignUp)
	r.Post("/auth/signin", rt.handleSignIn)
	r.Post("/auth/refresh", rt.handleRefresh)
	r.Post("/auth/verify", rt.handleVerify)

	r.Group(func(r chi.Router) {
		r.Use(rt.admissionMiddleware)
		r.Post("/vision/process-image", rt.handleProcessImage)
	})

	return r
}

func (rt *Router) admissionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := rt.guard.Allow(r.Context(), r); err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rt *Router) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	result, err := rt.identity.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	result, err := rt.identity.SignIn(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, ErrBadRequest)
		return
	}
	// Token-flow failures are carried in the 200 body; only a
	// broker/upstream failure reaches writeError here.
	result, err := rt.identity.RefreshToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) handleVerify(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, ErrBadRequest)
		return
	}
	result, err := rt.identity.VerifyUser(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) handleProcessImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, ErrBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, ErrBadRequest)
		return
	}

	model := visionpb.ModelType_BLIP
	if r.FormValue("model") == "BLIP_QUANTIZED" {
		model = visionpb.ModelType_BLIP_QUANTIZED
	}

	images := make([][]byte, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeError(w, ErrBadRequest)
			return
		}
		data := make([]byte, fh.Size)
		if _, err := f.Read(data); err != nil {
			f.Close()
			writeError(w, ErrBadRequest)
			return
		}
		f.Close()
		images = append(images, data)
	}

	if len(images) == 1 {
		description, err := rt.vision.ProcessImage(r.Context(), images[0], model)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": description})
		return
	}

	descriptions, err := rt.vision.ProcessImageBatch(r.Context(), images, model)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"descriptions": descriptions})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
