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
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// LockHeldError reports a lock somebody else holds
type LockHeldError string

func (l LockHeldError) Error() string { return string(l) }

// Lock interface abstracting over file-based or consul-based locks
type Lock interface {
	TryLock() error
	Unlock() error
}

// lockValue identifies this process as the holder of a lock
func lockValue(runID string) []byte {
	return []byte(strconv.Itoa(os.Getpid()) + " " + runID + "\n")
}

// FileLock is for file-based locks
type FileLock struct {
	path  string
	runID string
}

// InitFileLock builds a FileLock at the path specified by name
func InitFileLock(name, runID string) (Lock, error) {
	path, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}
	return &FileLock{path: path, runID: runID}, nil
}

// TryLock creates the lock file, failing if it already exists. Lock files outlive the
// process that made them.
func (fl FileLock) TryLock() error {
	f, err := os.OpenFile(fl.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if os.IsExist(err) {
		return LockHeldError("Lock currently held at " + fl.path)
	}
	if err != nil {
		return err
	}
	_, err = f.Write(lockValue(fl.runID))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Unlock tries to release the lock on a file
func (fl FileLock) Unlock() error {
	return os.Remove(fl.path)
}

// ConsulLock is for Consul-based locks
type ConsulLock struct {
	kv    *api.KV
	key   string
	runID string
}

// InitConsulLock builds a ConsulLock (a KV pair in Consul) with the name argument as key
func InitConsulLock(consulAddress, name, runID string) (Lock, error) {
	client, err := api.NewClient(&api.Config{Address: consulAddress})
	if err != nil {
		return nil, err
	}

	kv := client.KV()
	return &ConsulLock{kv: kv, key: name, runID: runID}, nil
}

// TryLock acquires the lock with a check-and-set on a key that must not exist yet
func (cl ConsulLock) TryLock() error {
	ok, _, err := cl.kv.CAS(&api.KVPair{Key: cl.key, Value: lockValue(cl.runID), ModifyIndex: 0}, nil)
	if err != nil {
		return err
	}
	if !ok {
		return LockHeldError("Lock currently held at " + cl.key)
	}
	return nil
}

// Unlock releases the lock from Consul
func (cl ConsulLock) Unlock() error {
	p, _, err := cl.kv.Get(cl.key, nil)
	if err != nil {
		return err
	}
	if p == nil {
		return api.ErrLockNotHeld
	}
	if string(p.Value) != string(lockValue(cl.runID)) {
		return errors.New("Lock at " + cl.key + " is held by another process")
	}
	_, err = cl.kv.Delete(cl.key, nil)
	return err
}

// GetLock builds a file-based or consul-based lock depending on the consul variable
func GetLock(lock, consul, runID string) (Lock, error) {
	var l Lock
	var err error
	if consul != "" {
		l, err = InitConsulLock(consul, lock, runID)
	} else {
		l, err = InitFileLock(lock, runID)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}
