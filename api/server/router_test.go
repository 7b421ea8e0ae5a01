// Copyright (C) 2019-2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testHandler struct{ called bool }

func (t *testHandler) ServeHTTP(_ http.ResponseWriter, _ *http.Request) {
	t.called = true
}

func TestRouterDispatchesByURL(t *testing.T) {
	require := require.New(t)

	r := newRouter()
	ledger := &testHandler{}
	party := &testHandler{}
	require.NoError(r.AddRouter(BaseURL+"/ledger", "", ledger))
	require.NoError(r.AddRouter(BaseURL+"/party", "", party))

	handler, err := r.GetHandler(BaseURL+"/ledger", "")
	require.NoError(err)
	require.Equal(ledger, handler)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, BaseURL+"/party", nil))
	require.True(party.called)
	require.False(ledger.called)
}

func TestRouterRefusesDuplicateRoute(t *testing.T) {
	require := require.New(t)

	r := newRouter()
	require.NoError(r.AddRouter(BaseURL+"/notary", "", &testHandler{}))

	err := r.AddRouter(BaseURL+"/notary", "", &testHandler{})
	require.ErrorIs(err, errAlreadyReserved)

	// A different endpoint under the same base is allowed.
	require.NoError(r.AddRouter(BaseURL+"/notary", "/v2", &testHandler{}))
}

func TestRouterUnknownRoute(t *testing.T) {
	_, err := newRouter().GetHandler(BaseURL+"/health", "")
	require.ErrorIs(t, err, errUnknownRoute)
}
