package repodata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChannelDataVersion is the channeldata.json format version.
const ChannelDataVersion = 1

// ChannelData is the channel-level summary document written at the channel
// root. Package summaries are not tracked; conda only needs the subdir list.
type ChannelData struct {
	ChannelDataVersion int            `json:"channeldata_version"`
	Packages           map[string]any `json:"packages"`
	Subdirs            []string       `json:"subdirs"`
}

// NewChannelData returns the summary for a single-subdir channel.
func NewChannelData() *ChannelData {
	return &ChannelData{
		ChannelDataVersion: ChannelDataVersion,
		Packages:           map[string]any{},
		Subdirs:            []string{Subdir},
	}
}

// WriteChannelData writes channeldata.json into dir.
func WriteChannelData(dir string) error {
	data, err := json.MarshalIndent(NewChannelData(), "", "  ")
	if err != nil {
		return fmt.Errorf("serializing channeldata: %w", err)
	}
	path := filepath.Join(dir, "channeldata.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
