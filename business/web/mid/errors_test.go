package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/business/web/errs"
	"github.com/luismeyer95/blockchain-sim-sub000/business/web/mid"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

func TestErrors(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
		rule   string
	}

	tt := []table{
		{"fields", validate.FieldErrors{{Field: "to", Err: "to is a required field"}}, http.StatusBadRequest, ""},
		{"ledger", &operator.ValidationError{Rule: operator.RuleBalance, Message: "short"}, http.StatusUnprocessableEntity, operator.RuleBalance},
		{"wrapped", fmt.Errorf("submit: %w", &operator.ValidationError{Rule: operator.RuleSign, Message: "bad"}), http.StatusUnprocessableEntity, operator.RuleSign},
		{"range", &operator.MissingRangeError{Start: 2, End: 5}, http.StatusConflict, ""},
		{"duplicate", mempool.ErrDuplicate, http.StatusConflict, ""},
		{"trusted", errs.NewTrusted(errors.New("nope"), http.StatusNotFound), http.StatusNotFound, ""},
		{"panic", nil, http.StatusInternalServerError, ""},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			shutdown := make(chan os.Signal, 1)
			log := zap.NewNop().Sugar()

			app := web.NewApp(shutdown, mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())
			app.Handle(http.MethodGet, "v1", "/fail", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				if tst.err == nil {
					panic("boom")
				}
				return tst.err
			})

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/fail", nil))

			require.Equal(t, tst.status, w.Code)

			var resp errs.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotEmpty(t, resp.Error)
			require.Equal(t, tst.rule, resp.Rule)
			require.Empty(t, shutdown, "expected errors never shut the service down")
		}

		t.Run(tst.name, f)
	}
}
