package flood

import "time"

// QuickPreset は動作確認用の軽い設定
func QuickPreset() Config {
	c := DefaultConfig()
	c.Name = "quick"
	c.Description = "Single worker smoke test"
	c.Requests = 100
	c.CommandsPerRequest = 1
	c.Workers = 1
	c.DrainDelay = 200 * time.Millisecond
	return c
}

// WriteHeavyPreset は書き込みのみの設定
func WriteHeavyPreset() Config {
	c := DefaultConfig()
	c.Name = "write-heavy"
	c.Description = "Writes only (set / rpush / hset)"
	c.AllSet = true
	return c
}

// PipelinePreset は大きなバッチを送る設定
func PipelinePreset() Config {
	c := DefaultConfig()
	c.Name = "pipeline"
	c.Description = "Few connections, large pipelined batches"
	c.Requests = 500
	c.CommandsPerRequest = 100
	c.Workers = 2
	c.ReadBufferSize = 64 * 1024
	return c
}

// StressPreset は高負荷設定
func StressPreset() Config {
	c := DefaultConfig()
	c.Name = "stress"
	c.Description = "Many connections, sustained mixed load"
	c.Requests = 10000
	c.CommandsPerRequest = 20
	c.Workers = 16
	return c
}

var presets = map[string]func() Config{
	"quick":       QuickPreset,
	"default":     DefaultConfig,
	"write-heavy": WriteHeavyPreset,
	"pipeline":    PipelinePreset,
	"stress":      StressPreset,
}

// GetPreset は名前からプリセットを取得する
func GetPreset(name string) (Config, bool) {
	if fn, ok := presets[name]; ok {
		return fn(), true
	}
	return Config{}, false
}

// ListPresets は利用可能なプリセット名を返す
func ListPresets() []string {
	return []string{"quick", "default", "write-heavy", "pipeline", "stress"}
}
