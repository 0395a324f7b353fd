// Copyright 2026 The idempotent Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package idempotent

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gogama/idempotent/request"
	"github.com/gogama/idempotent/retry"
	"github.com/gogama/idempotent/timeout"
	"github.com/gogama/idempotent/transient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandlerFunc(t *testing.T) {
	var _env *request.Env
	expected := request.NewResult(200, nil)
	h := HandlerFunc(func(env *request.Env) (*request.Result, error) {
		_env = env
		return expected, nil
	})
	env := &request.Env{}
	res, err := h.Handle(env)
	assert.Same(t, expected, res)
	assert.NoError(t, err)
	assert.Same(t, env, _env)
}

func TestDoerHandler(t *testing.T) {
	for _, server := range servers {
		t.Run(serverName(server), func(t *testing.T) {
			t.Run("happy path", func(t *testing.T) {
				h := DoerHandler(server.Client())
				env := (&serverInstruction{StatusCode: 201, Body: "hello"}).toEnv(context.Background(), "PUT", server)
				res, err := h.Handle(env)
				require.NoError(t, err)
				assert.Equal(t, 201, res.StatusCode)
				assert.Equal(t, []byte("hello"), res.Body)
				assert.Equal(t, "PUT", res.Header.Get("X-Method"))
			})
			t.Run("retry status", func(t *testing.T) {
				instructions := []*serverInstruction{
					{StatusCode: 503, Body: "unavailable"},
					{StatusCode: 504},
					{StatusCode: 200, Body: "finally"},
				}
				listeners := &ListenerGroup{}
				listeners.PushBack(BeforeAttempt, ListenerFunc(func(_ Event, e *request.Execution) {
					e.Request.Body = instructions[e.Attempt-1].toJSON()
				}))
				mw := &Middleware{
					Handler:   DoerHandler(server.Client()),
					Listeners: listeners,
				}
				env := (&serverInstruction{}).toEnv(context.Background(), "GET", server)
				res, err := mw.Handle(env)
				require.NoError(t, err)
				assert.Equal(t, 200, res.StatusCode)
				assert.Equal(t, []byte("finally"), res.Body)
				require.Len(t, env.Failures, 2)
				var se *retry.StatusError
				require.ErrorAs(t, env.Failures[0], &se)
				assert.Equal(t, []byte("unavailable"), se.Body)
			})
			t.Run("attempt timeout", func(t *testing.T) {
				mw := &Middleware{
					Handler:       DoerHandler(server.Client()),
					RetryPolicy:   retry.Immediate(2),
					TimeoutPolicy: timeout.Fixed(20 * time.Millisecond),
				}
				env := (&serverInstruction{StatusCode: 200, HeaderPause: time.Second}).toEnv(context.Background(), "GET", server)
				res, err := mw.Handle(env)
				assert.Nil(t, res)
				var le *retry.LimitError
				require.ErrorAs(t, err, &le)
				require.Len(t, le.Failures, 2)
				for _, failure := range le.Failures {
					assert.IsType(t, &url.Error{}, failure)
					assert.Equal(t, transient.Timeout, transient.Categorize(failure))
				}
			})
		})
	}
	t.Run("nil doer", func(t *testing.T) {
		h := DoerHandler(nil)
		res, err := h.Handle((&serverInstruction{StatusCode: 204}).toEnv(context.Background(), "GET", httpServer))
		require.NoError(t, err)
		assert.Equal(t, 204, res.StatusCode)
	})
	t.Run("connection refused", func(t *testing.T) {
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()
		mw := &Middleware{
			Handler:     DoerHandler(closed.Client()),
			RetryPolicy: retry.Immediate(3),
		}
		env, err := request.NewEnv("POST", closed.URL, "x")
		require.NoError(t, err)
		_, err = mw.Handle(env)
		var le *retry.LimitError
		require.ErrorAs(t, err, &le)
		require.Len(t, le.Failures, 3)
		assert.Equal(t, transient.ConnRefused, transient.Categorize(le.Last()))
		var ue *url.Error
		require.ErrorAs(t, le.Last(), &ue)
		assert.Equal(t, "Post", ue.Op)
	})
	t.Run("read body error", func(t *testing.T) {
		readErr := errors.New("read failed")
		mockDoer := newMockHTTPDoer(t)
		mockReadCloser := newMockReadCloser(t)
		mockDoer.On("Do", mock.AnythingOfType("*http.Request")).
			Return(&http.Response{StatusCode: 200, Body: mockReadCloser}, nil).
			Once()
		mockReadCloser.On("Read", mock.Anything).Return(0, readErr).Once()
		mockReadCloser.On("Close").Return(nil).Once()
		env, err := request.NewEnv("GET", "http://example.com/body", nil)
		require.NoError(t, err)
		res, err := DoerHandler(mockDoer).Handle(env)
		assert.Nil(t, res)
		var ue *url.Error
		require.ErrorAs(t, err, &ue)
		assert.Same(t, readErr, ue.Err)
		assert.Equal(t, "http://example.com/body", ue.URL)
		mockDoer.AssertExpectations(t)
		mockReadCloser.AssertExpectations(t)
	})
	t.Run("url error is not wrapped twice", func(t *testing.T) {
		doErr := &url.Error{Op: "Get", URL: "http://example.com", Err: errors.New("dial")}
		mockDoer := newMockHTTPDoer(t)
		mockDoer.On("Do", mock.Anything).Return(nil, doErr).Once()
		env, err := request.NewEnv("", "http://example.com", nil)
		require.NoError(t, err)
		_, err = DoerHandler(mockDoer).Handle(env)
		assert.Same(t, doErr, err)
		mockDoer.AssertExpectations(t)
	})
}

type mockHTTPDoer struct {
	mock.Mock
}

func newMockHTTPDoer(t *testing.T) *mockHTTPDoer {
	m := &mockHTTPDoer{}
	m.Test(t)
	return m
}

func (m *mockHTTPDoer) Do(r *http.Request) (*http.Response, error) {
	args := m.Called(r)
	resp, _ := args.Get(0).(*http.Response)
	return resp, args.Error(1)
}

type mockReadCloser struct {
	mock.Mock
}

func newMockReadCloser(t *testing.T) *mockReadCloser {
	m := &mockReadCloser{}
	m.Test(t)
	return m
}

func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	args := m.Called(p)
	n = args.Int(0)
	err = args.Error(1)
	return
}

func (m *mockReadCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ io.ReadCloser = (*mockReadCloser)(nil)
