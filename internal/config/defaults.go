package config

const (
	defaultReelsDir            = "~/reels"
	defaultWorkDir             = "~/.local/share/reelforge/work"
	defaultDataDir             = "~/.local/share/reelforge"
	defaultLogDir              = "~/.local/share/reelforge/logs"
	defaultAPIBind             = "127.0.0.1:7690"
	defaultCompositorBinary    = "ffmpeg"
	defaultVideoCodec          = "libx264"
	defaultAudioCodec          = "aac"
	defaultPreset              = "medium"
	defaultCRF                 = 23
	defaultPixelFormat         = "yuv420p"
	defaultCompositorTimeout   = 1800
	defaultFit                 = "crop"
	defaultMinFreeMiB          = 512
	defaultCaptionStyle        = "flash"
	defaultFontName            = "Roboto"
	defaultFontSize            = 96
	defaultNeutralColor        = "FFFFFF"
	defaultHighlightColor      = "FFFF00"
	defaultDimColor            = "9E9E9E"
	defaultOutlineColor        = "000000"
	defaultChunkSize           = 3
	defaultMusicDir            = "~/.local/share/reelforge/music"
	defaultMusicGain           = 0.15
	defaultStoragePrefix       = "videos"
	defaultMaxConcurrent       = 2
	defaultAdmissionsPerMinute = 30
	defaultAdmissionBurst      = 5
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

func defaultMusicTracks() map[string]string {
	return map[string]string{
		"lofi":      "lofi.mp3",
		"upbeat":    "upbeat.mp3",
		"cinematic": "cinematic.mp3",
		"ambient":   "ambient.mp3",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ReelsDir: defaultReelsDir,
			WorkDir:  defaultWorkDir,
			DataDir:  defaultDataDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Compositor: Compositor{
			Binary:         defaultCompositorBinary,
			VideoCodec:     defaultVideoCodec,
			AudioCodec:     defaultAudioCodec,
			Preset:         defaultPreset,
			CRF:            defaultCRF,
			PixelFormat:    defaultPixelFormat,
			Overwrite:      true,
			TimeoutSeconds: defaultCompositorTimeout,
			Fit:            defaultFit,
			MinFreeMiB:     defaultMinFreeMiB,
		},
		Captions: Captions{
			Style:          defaultCaptionStyle,
			FontName:       defaultFontName,
			FontSize:       defaultFontSize,
			NeutralColor:   defaultNeutralColor,
			HighlightColor: defaultHighlightColor,
			DimColor:       defaultDimColor,
			OutlineColor:   defaultOutlineColor,
			ChunkSize:      defaultChunkSize,
		},
		Music: Music{
			Dir:    defaultMusicDir,
			Gain:   defaultMusicGain,
			Tracks: defaultMusicTracks(),
		},
		Storage: Storage{
			Prefix: defaultStoragePrefix,
		},
		Workers: Workers{
			MaxConcurrent:       defaultMaxConcurrent,
			AdmissionsPerMinute: defaultAdmissionsPerMinute,
			AdmissionBurst:      defaultAdmissionBurst,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
			NotifySuccess:         true,
			NotifyFailure:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
