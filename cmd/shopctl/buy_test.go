package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItem(t *testing.T) {
	p, qty, err := parseItem("hat:Cowboy Hat:20.00:5:2")
	require.NoError(t, err)
	assert.Equal(t, "hat", p.ID)
	assert.Equal(t, "Cowboy Hat", p.Name)
	assert.Equal(t, "20", p.Price.String())
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 2, qty)

	_, qty, err = parseItem("belt:Belt:5:10")
	require.NoError(t, err)
	assert.Equal(t, 1, qty)

	for _, bad := range []string{"x", "a:b:c", "a:b:nope:1", "a:b:1:many", "a:b:1:1:x"} {
		_, _, err := parseItem(bad)
		assert.Error(t, err, bad)
	}
}

func shopServer(t *testing.T, confirms *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/checkout":
			var req checkout.Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Len(t, req.CartItems, 2)
			assert.Equal(t, "45", req.Amounts.Subtotal.String())
			_, _ = w.Write([]byte(`{"sessionId":"cs_1","url":"https://pay.example/cs_1"}`))
		case "/api/create-order":
			atomic.AddInt32(confirms, 1)
			_, _ = w.Write([]byte(`{"orderNumber":"ORD-1-ABCD","order":{"order_number":"ORD-1-ABCD","status":"Processing",` +
				`"order_items":[{"product_id":"hat","product_name":"Cowboy Hat","quantity":2,"unit_price":"20","line_total":"40"}],` +
				`"subtotal":"45","tax":"9.5","shipping":"10","total":"54.5"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func runBuyWith(t *testing.T, stdin string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := newBuyCmd()
	cmd.SetArgs([]string{
		"--item", "hat:Cowboy Hat:20.00:5:2", "--item", "belt:Belt:5:10",
		"--email", "ann@example.com", "--name", "Ann", "--address", "1 Trail Rd",
		"--city", "Austin", "--state", "TX", "--zip", "73301",
	})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestBuyConfirmsFromRedirect(t *testing.T) {
	var confirms int32
	srv := shopServer(t, &confirms)
	defer srv.Close()
	apiURL = srv.URL

	out, errOut, err := runBuyWith(t, "http://localhost:3000/success?session_id=cs_1\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Pay here: https://pay.example/cs_1")
	assert.Contains(t, out, "Order ORD-1-ABCD (Processing)")
	assert.Contains(t, out, "Total 54.50")
	assert.EqualValues(t, 1, atomic.LoadInt32(&confirms))
	// one notification per add, one for the clear
	assert.Equal(t, 3, strings.Count(errOut, "cart: "))
	assert.Contains(t, errOut, "cart: 0 item(s)")
}

func TestBuyKeepsCartWithoutSessionID(t *testing.T) {
	var confirms int32
	srv := shopServer(t, &confirms)
	defer srv.Close()
	apiURL = srv.URL

	_, errOut, err := runBuyWith(t, "http://localhost:3000/success\n")
	require.Error(t, err)
	assert.Contains(t, errOut, "cart kept (3 item(s))")
	assert.Zero(t, atomic.LoadInt32(&confirms))
}
