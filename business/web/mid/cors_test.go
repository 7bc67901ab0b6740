package mid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luismeyer95/blockchain-sim-sub000/business/web/mid"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

func TestCors(t *testing.T) {
	type table struct {
		name    string
		origins []string
		origin  string
		allow   string
	}

	tt := []table{
		{"default", nil, "http://viewer:3080", "*"},
		{"wildcard", []string{"*"}, "http://viewer:3080", "*"},
		{"listed", []string{"http://a:1", "http://viewer:3080"}, "http://viewer:3080", "http://viewer:3080"},
		{"unlisted", []string{"http://a:1"}, "http://viewer:3080", ""},
		{"no origin", []string{"http://a:1"}, "", ""},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			app := web.NewApp(make(chan os.Signal, 1), mid.Cors(tst.origins...))
			app.Handle(http.MethodGet, "v1", "/genesis", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return web.Respond(ctx, w, "ok", http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/v1/genesis", nil)
			if tst.origin != "" {
				r.Header.Set("Origin", tst.origin)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, r)

			require.Equal(t, http.StatusOK, w.Code, "the handler runs either way")
			require.Equal(t, tst.allow, w.Header().Get("Access-Control-Allow-Origin"))

			if tst.allow == "" {
				require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
				return
			}
			require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
		}

		t.Run(tst.name, f)
	}
}
