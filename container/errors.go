//
// Copyright (c) 2026 Snowplow Analytics Ltd. All rights reserved.
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

package container

import (
	"fmt"
)

// AssetErrorKind classifies an AssetError
type AssetErrorKind int

const (
	MissingAsset AssetErrorKind = iota + 1
	DuplicateAsset
	InvalidAssetName
)

func (k AssetErrorKind) String() string {
	switch k {
	case MissingAsset:
		return "missing asset"
	case DuplicateAsset:
		return "duplicate asset"
	case InvalidAssetName:
		return "invalid asset name"
	}
	return fmt.Sprintf("asset error %d", int(k))
}

// AssetError reports an image asset that is absent, repeated or badly named
type AssetError struct {
	Kind AssetErrorKind
	Name string
}

func (e *AssetError) Error() string {
	if e.Name == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + " " + e.Name
}

// Is matches any AssetError of the same kind
func (e *AssetError) Is(target error) bool {
	t, ok := target.(*AssetError)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrMissingAsset     = &AssetError{Kind: MissingAsset}
	ErrDuplicateAsset   = &AssetError{Kind: DuplicateAsset}
	ErrInvalidAssetName = &AssetError{Kind: InvalidAssetName}
)

// LayoutError reports an archive that does not hold exactly one script stream
type LayoutError struct {
	Reason string
}

func (e *LayoutError) Error() string {
	return "invalid archive layout: " + e.Reason
}
