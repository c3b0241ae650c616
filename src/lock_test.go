//
// Copyright (c) 2016-2026 Snowplow Analytics Ltd. All rights reserved.
//
// This program is licensed to you under the Apache License Version 2.0,
// and you may not use this file except in compliance with the Apache License Version 2.0.
// You may obtain a copy of the Apache License Version 2.0 at http://www.apache.org/licenses/LICENSE-2.0.
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the Apache License Version 2.0 is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the Apache License Version 2.0 for the specific language governing permissions and limitations there under.
//

package main

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
)

// fakeConsul serves the subset of the Consul KV API the locks use
type fakeConsul struct {
	mu sync.Mutex
	kv map[string][]byte
}

func (f *fakeConsul) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Consul-Index", "1")
	w.Header().Set("X-Consul-LastContact", "0")
	w.Header().Set("X-Consul-KnownLeader", "true")

	key := strings.TrimPrefix(r.URL.Path, "/v1/kv/")
	value, exists := f.kv[key]
	switch r.Method {
	case http.MethodGet:
		if !exists {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode([]*api.KVPair{{Key: key, Value: value, ModifyIndex: 1}})
	case http.MethodPut:
		if r.URL.Query().Get("cas") == "0" && exists {
			w.Write([]byte("false"))
			return
		}
		body, _ := ioutil.ReadAll(r.Body)
		f.kv[key] = body
		w.Write([]byte("true"))
	case http.MethodDelete:
		delete(f.kv, key)
		w.Write([]byte("true"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func makeConsul(t *testing.T) *httptest.Server {
	return httptest.NewServer(&fakeConsul{kv: make(map[string][]byte)})
}

func TestConsulLock(t *testing.T) {
	assert := assert.New(t)

	s := makeConsul(t)
	defer s.Close()

	lockName := "bwn-patcher/out.bwnp"

	cl, err := InitConsulLock("some://faulty.address", lockName, "run-1")
	assert.NotNil(err)
	assert.Nil(cl)
	assert.Equal("Unknown protocol scheme: some", err.Error())

	cl, err = InitConsulLock(s.URL, lockName, "run-1")
	assert.Nil(err)
	assert.NotNil(cl)

	err = cl.TryLock()
	assert.Nil(err)

	// fail if already locked
	err = cl.TryLock()
	assert.NotNil(err)
	assert.IsType(LockHeldError(""), err)
	assert.Equal("Lock currently held at "+lockName, err.Error())

	// another process can neither take nor release it
	ocl, err := InitConsulLock(s.URL, lockName, "run-2")
	assert.Nil(err)
	err = ocl.TryLock()
	assert.Equal("Lock currently held at "+lockName, err.Error())
	err = ocl.Unlock()
	assert.NotNil(err)
	assert.Equal("Lock at "+lockName+" is held by another process", err.Error())

	err = cl.Unlock()
	assert.Nil(err)

	// fail if already unlocked
	err = cl.Unlock()
	assert.Equal(api.ErrLockNotHeld, err)

	err = ocl.TryLock()
	assert.Nil(err)
}

func TestFileLock(t *testing.T) {
	assert := assert.New(t)

	tmpDir, _ := ioutil.TempDir("", "file-lock")
	defer os.RemoveAll(tmpDir)
	lockPath := filepath.Join(tmpDir, "lock")

	fl, err := InitFileLock(lockPath, "run-1")
	assert.NotNil(fl)
	assert.Nil(err)
	assert.Equal(&FileLock{path: lockPath, runID: "run-1"}, fl)

	// write to the file so that we can't get a lock on it
	err = ioutil.WriteFile(lockPath, []byte("42\n"), 0666)
	assert.Nil(err)

	err = fl.TryLock()
	assert.NotNil(err)
	assert.Equal("Lock currently held at "+lockPath, err.Error())

	// cleanup
	err = os.Remove(lockPath)
	assert.Nil(err)

	err = fl.TryLock()
	assert.Nil(err)
	content, _ := ioutil.ReadFile(lockPath)
	assert.True(strings.HasSuffix(string(content), " run-1\n"))

	err = fl.Unlock()
	assert.Nil(err)

	err = fl.Unlock()
	assert.NotNil(err)
	assert.True(os.IsNotExist(err))
}

func TestGetLock(t *testing.T) {
	assert := assert.New(t)

	s := makeConsul(t)
	defer s.Close()

	lockName := "/tmp/lock"

	// FileLock if consul == ""
	lock, err := GetLock(lockName, "", "run")
	assert.NotNil(lock)
	assert.Nil(err)
	assert.Equal(&FileLock{path: lockName, runID: "run"}, lock)

	// ConsulLock if consul != ""
	lock, err = GetLock(lockName, s.URL, "run")
	assert.NotNil(lock)
	assert.Nil(err)
	cl, ok := lock.(*ConsulLock)
	assert.NotNil(cl)
	assert.Equal(true, ok)

	// error otherwise
	lock, err = GetLock(lockName, "some://faulty.address", "run")
	assert.Nil(lock)
	assert.NotNil(err)
	assert.Equal("Unknown protocol scheme: some", err.Error())
}
