package generation

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

const defaultNegativePrompt = "ugly, deformed, noisy, blurry, distorted, out of focus, bad anatomy, extra limbs, poorly drawn face, poorly drawn hands, missing fingers"

// Params are the fixed image settings sent with every prompt.
type Params struct {
	Width          int
	Height         int
	NumImages      int
	ModelType      string
	Sampler        int
	CFGScale       float64
	GuidanceScale  float64
	Strength       float64
	Steps          int
	HighNoiseFrac  float64
	NegativePrompt string
	BatchID        string
	StatusUUID     string
}

func DefaultParams() Params {
	return Params{
		Width:          1024,
		Height:         1024,
		NumImages:      1,
		Sampler:        9,
		CFGScale:       3,
		GuidanceScale:  3,
		Strength:       1.7,
		Steps:          30,
		HighNoiseFrac:  1,
		NegativePrompt: defaultNegativePrompt,
		BatchID:        "0yU1CQbVkr",
	}
}

// Payload is the JSON body the generation backend expects.
type Payload struct {
	Width                   int     `json:"width"`
	Height                  int     `json:"height"`
	Seed                    uint32  `json:"seed"`
	NumImages               int     `json:"num_images"`
	ModelType               string  `json:"modelType"`
	Sampler                 int     `json:"sampler"`
	CFGScale                float64 `json:"cfg_scale"`
	GuidanceScale           float64 `json:"guidance_scale"`
	Strength                float64 `json:"strength"`
	Steps                   int     `json:"steps"`
	HighNoiseFrac           float64 `json:"high_noise_frac"`
	NegativePrompt          string  `json:"negativePrompt"`
	Prompt                  string  `json:"prompt"`
	Hide                    bool    `json:"hide"`
	IsPrivate               bool    `json:"isPrivate"`
	BatchID                 string  `json:"batchId"`
	GenerateVariants        bool    `json:"generateVariants"`
	InitImageFromPlayground bool    `json:"initImageFromPlayground"`
	StatusUUID              string  `json:"statusUUID"`
}

func (p Params) Payload(prompt string, seed uint32) Payload {
	return Payload{
		Width:          p.Width,
		Height:         p.Height,
		Seed:           seed,
		NumImages:      p.NumImages,
		ModelType:      p.ModelType,
		Sampler:        p.Sampler,
		CFGScale:       p.CFGScale,
		GuidanceScale:  p.GuidanceScale,
		Strength:       p.Strength,
		Steps:          p.Steps,
		HighNoiseFrac:  p.HighNoiseFrac,
		NegativePrompt: p.NegativePrompt,
		Prompt:         prompt,
		BatchID:        p.BatchID,
		StatusUUID:     p.StatusUUID,
	}
}

// NewSeed reads four bytes from crypto/rand as a big-endian uint32.
func NewSeed() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("failed to read seed: %w", err)
	}
	return binary.BigEndian.Uint32(b[:]), nil
}
