package fuzzy

import (
	"embed"
	"fmt"

	"github.com/hanzi-ime/imecore/pkg/imeerr"
)

//go:embed presets/*.yaml
var presetFS embed.FS

// Preset names a bundled YAML rule-set.
const (
	PresetPinyinLoose = "pinyin-loose"
	PresetZhuyinHSU    = "zhuyin-hsu"
)

var presetFiles = map[string]string{
	PresetPinyinLoose: "presets/pinyin_loose.yaml",
	PresetZhuyinHSU:    "presets/zhuyin_hsu.yaml",
}

// LoadPreset returns the rules bundled under name (see PresetPinyinLoose,
// PresetZhuyinHSU). This is additive convenience on top of, not a
// replacement for, the required textual "from=to:penalty" format.
func LoadPreset(name string) ([]Rule, error) {
	path, ok := presetFiles[name]
	if !ok {
		return nil, imeerr.Fuzzy("LoadPreset", fmt.Errorf("unknown preset %q", name))
	}
	data, err := presetFS.ReadFile(path)
	if err != nil {
		return nil, imeerr.Fuzzy("LoadPreset", err)
	}
	return ParsePresetYAML(data)
}
