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

// Package container bundles an encoded script stream with the screenshot assets its
// image-matching steps refer to.
//
// An archive is a zip file holding "<name>.bwn" followed by "<name>/<asset>" entries,
// deflated at best compression.
package container

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/snowplow/bwn-patcher/script"
)

const (
	StreamExt = ".bwn"
	AssetExt  = ".png"
)

// DefaultAssetPrefix is the prefix of the asset slots the player creates
const DefaultAssetPrefix = "bwn"

var assetName = regexp.MustCompile(`^[^/\\]+-[0-9]+\.png$`)

// Asset is one named image
type Asset struct {
	Name string
	Data []byte
}

// Archive is the content of a container. Name is the base name of the stream entry and
// of the asset folder.
type Archive struct {
	Name     string
	Stream   []byte
	Assets   []Asset
	Modified time.Time
}

// Asset returns the asset called name
func (a *Archive) Asset(name string) (*Asset, bool) {
	for i := range a.Assets {
		if a.Assets[i].Name == name {
			return &a.Assets[i], true
		}
	}
	return nil, false
}

// AssetNames returns the asset names in archive order
func (a *Archive) AssetNames() []string {
	names := make([]string, len(a.Assets))
	for i, as := range a.Assets {
		names[i] = as.Name
	}
	return names
}

// AssetName builds the canonical slot name "<prefix>-<n>.png"
func AssetName(prefix string, n int) string {
	return fmt.Sprintf("%s-%d%s", prefix, n, AssetExt)
}

// StreamName turns a project name into a file name usable as an archive entry
func StreamName(project string) string {
	name := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, project)
	name = strings.Trim(name, " .")
	if name == "" {
		name = "script"
	}
	return name
}

// CheckAssets verifies that assets are well named and unique and that every image the
// script refers to is among them
func CheckAssets(s *script.Script, assets []Asset) error {
	present := make(map[string]bool, len(assets))
	for _, as := range assets {
		if !assetName.MatchString(as.Name) {
			return &AssetError{Kind: InvalidAssetName, Name: as.Name}
		}
		if present[as.Name] {
			return &AssetError{Kind: DuplicateAsset, Name: as.Name}
		}
		present[as.Name] = true
	}
	for _, ref := range s.ImageReferences() {
		if !present[ref] {
			return &AssetError{Kind: MissingAsset, Name: ref}
		}
	}
	return nil
}

// SlotAssets gives every asset whose name is not a slot name the slot of its position,
// "bwn-<i+1>.png", and points the steps of s that used the old name at the slot. s and
// assets are left alone; the returned values are copies when anything was renamed.
func SlotAssets(s *script.Script, assets []Asset) (*script.Script, []Asset) {
	renamed := false
	for _, as := range assets {
		if !assetName.MatchString(as.Name) {
			renamed = true
			break
		}
	}
	if !renamed {
		return s, assets
	}

	s = s.Clone()
	slotted := make([]Asset, len(assets))
	for i, as := range assets {
		if !assetName.MatchString(as.Name) {
			slot := AssetName(DefaultAssetPrefix, i+1)
			s.RenameImage(as.Name, slot)
			as.Name = slot
		}
		slotted[i] = as
	}
	return s, slotted
}

// Pack encodes s and bundles it with assets, renamed by SlotAssets. Nothing is written
// unless every image reference of s resolves to one of the assets.
func Pack(s *script.Script, assets []Asset) ([]byte, error) {
	s, assets = SlotAssets(s, assets)
	if err := CheckAssets(s, assets); err != nil {
		return nil, err
	}
	stream, err := script.Encode(s)
	if err != nil {
		return nil, err
	}
	return Write(&Archive{Name: StreamName(s.Project.Name), Stream: stream, Assets: assets})
}

// Write serialises an archive. Assets keep their order.
func Write(a *Archive) ([]byte, error) {
	seen := make(map[string]bool, len(a.Assets))
	for _, as := range a.Assets {
		if !assetName.MatchString(as.Name) {
			return nil, &AssetError{Kind: InvalidAssetName, Name: as.Name}
		}
		if seen[as.Name] {
			return nil, &AssetError{Kind: DuplicateAsset, Name: as.Name}
		}
		seen[as.Name] = true
	}

	name := StreamName(a.Name)
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	w.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	if err := writeEntry(w, name+StreamExt, a.Stream, a.Modified); err != nil {
		return nil, err
	}
	for _, as := range a.Assets {
		if err := writeEntry(w, name+"/"+as.Name, as.Data, a.Modified); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeEntry(w *zip.Writer, name string, data []byte, modified time.Time) error {
	f, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return err
}

// Unpack reads an archive. It must hold exactly one stream entry; ".png" entries become
// assets named by their base name and anything else is skipped.
func Unpack(data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &LayoutError{Reason: "not a zip archive: " + err.Error()}
	}

	a := &Archive{}
	var streams []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case StreamExt:
			streams = append(streams, f.Name)
			if len(streams) > 1 {
				continue
			}
			if a.Stream, err = readEntry(f); err != nil {
				return nil, err
			}
			a.Name = strings.TrimSuffix(path.Base(f.Name), path.Ext(f.Name))
			a.Modified = f.Modified
		case AssetExt:
			b, err := readEntry(f)
			if err != nil {
				return nil, err
			}
			name := path.Base(f.Name)
			if _, dup := a.Asset(name); dup {
				return nil, &AssetError{Kind: DuplicateAsset, Name: name}
			}
			a.Assets = append(a.Assets, Asset{Name: name, Data: b})
		}
	}

	switch len(streams) {
	case 0:
		return nil, &LayoutError{Reason: "no " + StreamExt + " entry"}
	case 1:
		return a, nil
	}
	return nil, &LayoutError{Reason: fmt.Sprintf("%d %s entries: %s", len(streams), StreamExt, strings.Join(streams, ", "))}
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, &LayoutError{Reason: f.Name + ": " + err.Error()}
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, &LayoutError{Reason: f.Name + ": " + err.Error()}
	}
	return b, nil
}
