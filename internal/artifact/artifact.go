// Package artifact finds the built APK in a release directory and derives
// the name it is published under.
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"apkdrop/internal/structures"
)

const (
	// DescriptorFile is the legacy Android Gradle output descriptor.
	DescriptorFile = "output.json"
	// MetadataFile is the descriptor written by newer Android Gradle plugins.
	MetadataFile = "output-metadata.json"
)

// ErrMalformedDescriptor is returned when the descriptor cannot be read or
// does not describe an artifact.
var ErrMalformedDescriptor = errors.New("malformed build descriptor")

type apkMeta struct {
	VersionName string `json:"versionName"`
	OutputFile  string `json:"outputFile"`
}

// variant is one entry of output.json. Gradle wrote the metadata under
// apkInfo in some versions and apkData in others.
type variant struct {
	APKInfo *apkMeta `json:"apkInfo"`
	APKData *apkMeta `json:"apkData"`
}

func (v variant) meta() (*apkMeta, error) {
	switch {
	case v.APKInfo != nil:
		return v.APKInfo, nil
	case v.APKData != nil:
		return v.APKData, nil
	default:
		return nil, fmt.Errorf("%w: neither apkInfo nor apkData present", ErrMalformedDescriptor)
	}
}

type outputMetadata struct {
	Elements []apkMeta `json:"elements"`
}

// Locate reads the descriptor in releaseDir and returns the artifact version
// and its absolute path. output.json wins; output-metadata.json is used only
// when output.json does not exist.
func Locate(releaseDir string) (structures.Artifact, error) {
	meta, err := readDescriptor(releaseDir)
	if err != nil {
		return structures.Artifact{}, err
	}

	if strings.TrimSpace(meta.VersionName) == "" {
		return structures.Artifact{}, fmt.Errorf("%w: versionName is empty", ErrMalformedDescriptor)
	}
	if strings.TrimSpace(meta.OutputFile) == "" {
		return structures.Artifact{}, fmt.Errorf("%w: outputFile is empty", ErrMalformedDescriptor)
	}

	path, err := filepath.Abs(filepath.Join(releaseDir, meta.OutputFile))
	if err != nil {
		return structures.Artifact{}, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	return structures.Artifact{Version: meta.VersionName, Path: path}, nil
}

func readDescriptor(releaseDir string) (*apkMeta, error) {
	data, err := os.ReadFile(filepath.Join(releaseDir, DescriptorFile))
	if err == nil {
		return parseOutputJSON(data)
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}

	data, mErr := os.ReadFile(filepath.Join(releaseDir, MetadataFile))
	if mErr != nil {
		// Report the primary descriptor; it is the one users expect.
		return nil, fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	return parseOutputMetadata(data)
}

func parseOutputJSON(data []byte) (*apkMeta, error) {
	var variants []variant
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDescriptor, DescriptorFile, err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: %s has no entries", ErrMalformedDescriptor, DescriptorFile)
	}
	return variants[0].meta()
}

func parseOutputMetadata(data []byte) (*apkMeta, error) {
	var md outputMetadata
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDescriptor, MetadataFile, err)
	}
	if len(md.Elements) == 0 {
		return nil, fmt.Errorf("%w: %s has no elements", ErrMalformedDescriptor, MetadataFile)
	}
	return &md.Elements[0], nil
}

// TargetFileName builds the published file name:
//
//	("MyApp", "1.03") -> "myapp_1_03.apk"
//
// Whitespace anywhere in the result is removed.
func TargetFileName(appName, version string) string {
	name := fmt.Sprintf("%s_%s.apk", strings.ToLower(appName), strings.ReplaceAll(version, ".", "_"))
	return strings.Join(strings.Fields(name), "")
}
