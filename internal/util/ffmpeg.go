package util

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

const probeTimeout = 15 * time.Second

// VideoInfo 上传视频的元数据，随上传结果返回给前端用于展示课程时长
type VideoInfo struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Container       string  `json:"container"`
	Bytes           int64   `json:"bytes"`
}

// ProbeVideo 调用 ffprobe，需要运行环境安装 ffmpeg
func ProbeVideo(path string) (*VideoInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat video: %w", err)
	}

	out, err := ffmpeg.ProbeWithTimeout(path, probeTimeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return decodeProbe(out, stat.Size())
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		Size       string `json:"size"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// decodeProbe 字段缺失时取零值，大小缺失时用文件实际大小
func decodeProbe(raw string, statSize int64) (*VideoInfo, error) {
	var p probeOutput
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := &VideoInfo{Container: "unknown", Bytes: statSize}
	for _, s := range p.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			break
		}
	}
	if d, err := strconv.ParseFloat(p.Format.Duration, 64); err == nil && !math.IsNaN(d) {
		info.DurationSeconds = d
	}
	if n, err := strconv.ParseInt(p.Format.Size, 10, 64); err == nil {
		info.Bytes = n
	}
	// format_name 形如 "mov,mp4,m4a,3gp"
	if name, _, _ := strings.Cut(p.Format.FormatName, ","); name != "" {
		info.Container = name
	}
	return info, nil
}
