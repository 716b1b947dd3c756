package nodes

import (
	"context"
	"fmt"

	"falbridge/internal/aspect"
	"falbridge/internal/credentials"
	"falbridge/internal/imaging"
	"falbridge/internal/jobs"
	"falbridge/pkg/types"
)

// Broadcaster is the outbound fire-and-forget announcement channel a
// node uses to tell observers about the active credential.
type Broadcaster interface {
	KeyStatus(activeKeyName string)
}

// Deps are the shared collaborators handed to the built-in nodes.
type Deps struct {
	Store      *credentials.Store
	Marshaller *imaging.Marshaller
	Decoder    *imaging.Decoder
	Runner     *jobs.Runner
	Events     Broadcaster
}

// Builtins returns the stock node set. Registration order is display
// order in the host editor.
func Builtins(d Deps) *Registry {
	reg := NewRegistry()
	mustRegister(reg, textToImage(d))
	mustRegister(reg, imageToImage(d))
	mustRegister(reg, textToVideo(d))
	mustRegister(reg, generateText(d))
	mustRegister(reg, keyManager(d))
	mustRegister(reg, aspectRatioFinder())
	return reg
}

func mustRegister(reg *Registry, n *Node) {
	if err := reg.Register(n); err != nil {
		panic(err)
	}
}

func textToImage(d Deps) *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "FluxTextToImage",
			DisplayName: "Flux Text to Image",
			Category:    "FAL/Image",
			Inputs: []types.NodeInput{
				{Name: "prompt", Type: "STRING", Required: true},
				{Name: "aspect_ratio", Type: "STRING", Default: "1:1"},
				{Name: "num_images", Type: "NUMBER", Default: 1},
				{Name: "seed", Type: "NUMBER"},
			},
			Outputs: []string{"images"},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			args := map[string]any{"prompt": in.String("prompt")}
			if ar := in.String("aspect_ratio"); ar != "" {
				args["aspect_ratio"] = ar
			}
			if n, ok := in.Int("num_images"); ok && n > 0 {
				args["num_images"] = n
			}
			if seed, ok := in.Int("seed"); ok && seed > 0 {
				args["seed"] = seed
			}
			result, err := d.Runner.SubmitAndWait(ctx, "fal-ai/flux/dev", args)
			if err != nil {
				return Outputs{"images": d.Runner.ImageError("flux/dev", err)}, nil
			}
			return Outputs{"images": d.Decoder.DecodeImages(ctx, result)}, nil
		},
	}
}

func imageToImage(d Deps) *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "FluxImageToImage",
			DisplayName: "Flux Image to Image",
			Category:    "FAL/Image",
			Inputs: []types.NodeInput{
				{Name: "image", Type: "IMAGE", Required: true},
				{Name: "prompt", Type: "STRING", Required: true},
				{Name: "strength", Type: "FLOAT", Default: 0.95},
			},
			Outputs: []string{"images"},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			urls := d.Marshaller.PrepareImages(ctx, in.Tensor("image"))
			if len(urls) == 0 {
				err := fmt.Errorf("no input image could be uploaded")
				return Outputs{"images": d.Runner.ImageError("flux/dev/image-to-image", err)}, nil
			}
			args := map[string]any{
				"image_url": urls[0],
				"prompt":    in.String("prompt"),
			}
			if s, ok := in["strength"].(float64); ok && s > 0 {
				args["strength"] = s
			}
			result, err := d.Runner.SubmitAndWait(ctx, "fal-ai/flux/dev/image-to-image", args)
			if err != nil {
				return Outputs{"images": d.Runner.ImageError("flux/dev/image-to-image", err)}, nil
			}
			return Outputs{"images": d.Decoder.DecodeImages(ctx, result)}, nil
		},
	}
}

func textToVideo(d Deps) *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "KlingTextToVideo",
			DisplayName: "Kling Text to Video",
			Category:    "FAL/Video",
			Inputs: []types.NodeInput{
				{Name: "prompt", Type: "STRING", Required: true},
				{Name: "duration", Type: "NUMBER", Default: 5},
				{Name: "aspect_ratio", Type: "STRING", Default: "16:9"},
			},
			Outputs: []string{"video_url"},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			const endpoint = "fal-ai/kling-video/v1/standard/text-to-video"
			args := map[string]any{"prompt": in.String("prompt")}
			if dur, ok := in.Int("duration"); ok && dur > 0 {
				args["duration"] = dur
			}
			if ar := in.String("aspect_ratio"); ar != "" {
				args["aspect_ratio"] = ar
			}
			result, err := d.Runner.SubmitAndWait(ctx, endpoint, args)
			if err != nil {
				return Outputs{"video_url": d.Runner.VideoError("kling-video", err)}, nil
			}
			url, err := resultURL(result, "video")
			if err != nil {
				return Outputs{"video_url": d.Runner.VideoError("kling-video", err)}, nil
			}
			return Outputs{"video_url": url}, nil
		},
	}
}

func generateText(d Deps) *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "AnyLLM",
			DisplayName: "Any LLM",
			Category:    "FAL/Text",
			Inputs: []types.NodeInput{
				{Name: "prompt", Type: "STRING", Required: true},
				{Name: "model", Type: "STRING", Default: "google/gemini-flash-1.5"},
				{Name: "system_prompt", Type: "STRING"},
			},
			Outputs: []string{"text"},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			args := map[string]any{"prompt": in.String("prompt")}
			if m := in.String("model"); m != "" {
				args["model"] = m
			}
			if sp := in.String("system_prompt"); sp != "" {
				args["system_prompt"] = sp
			}
			result, err := d.Runner.SubmitAndWait(ctx, "fal-ai/any-llm", args)
			if err != nil {
				return Outputs{"text": d.Runner.TextError("any-llm", err)}, nil
			}
			text, ok := result["output"].(string)
			if !ok {
				return Outputs{"text": d.Runner.TextError("any-llm", fmt.Errorf("result has no output text"))}, nil
			}
			return Outputs{"text": text}, nil
		},
	}
}

// keyManager announces the active credential to observers. Keys are
// selected out-of-band through the set-key route; this node only
// reports, so saved workflows never contain a key.
func keyManager(d Deps) *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "FalApiKeyManager",
			DisplayName: "FAL API Key Manager",
			Category:    "FAL/Utils",
			Inputs:      []types.NodeInput{},
			Outputs:     []string{},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			d.Events.KeyStatus(d.Store.KeyDisplayName())
			return Outputs{}, nil
		},
	}
}

func aspectRatioFinder() *Node {
	return &Node{
		Descriptor: types.NodeDescriptor{
			ID:          "AspectRatioFinder",
			DisplayName: "Aspect Ratio Finder",
			Category:    "FAL/Utils",
			Inputs: []types.NodeInput{
				{Name: "image", Type: "IMAGE"},
				{Name: "width", Type: "NUMBER"},
				{Name: "height", Type: "NUMBER"},
				{Name: "aspect_ratio_mode", Type: "STRING", Default: "preset"},
				{Name: "custom_aspect_ratios", Type: "STRING", Default: "9:16, 16:9, 1:1, 4:3, 3:4"},
			},
			Outputs: []string{"aspect_float", "is_landscape_bool", "aspect_ratio_common", "aspect_type", "closest_aspect_ratio"},
		},
		Run: func(ctx context.Context, in Inputs) (Outputs, error) {
			candidates := aspect.DefaultCandidates
			if in.String("aspect_ratio_mode") == "custom" {
				if list := aspect.ParseList(in.String("custom_aspect_ratios")); len(list) > 0 {
					candidates = list
				}
			}

			var info aspect.Info
			w, wok := in.Int("width")
			h, hok := in.Int("height")
			switch {
			case wok && hok:
				var err error
				info, err = aspect.Classify(w, h, candidates)
				if err != nil {
					return nil, err
				}
			case in.Tensor("image") != nil:
				img, err := imaging.TensorToImage(*in.Tensor("image"))
				if err != nil {
					return nil, fmt.Errorf("aspect ratio finder: %w", err)
				}
				info, err = aspect.ClassifyImage(img, candidates)
				if err != nil {
					return nil, err
				}
			default:
				// The one loud failure: no dimensions means no answer.
				return nil, fmt.Errorf("aspect ratio finder needs explicit width and height when no image is supplied")
			}

			return Outputs{
				"aspect_float":         info.Ratio,
				"is_landscape_bool":    info.IsLandscape,
				"aspect_ratio_common":  info.Reduced,
				"aspect_type":          info.Type,
				"closest_aspect_ratio": info.Nearest,
			}, nil
		},
	}
}

// resultURL extracts result[key]["url"] from a job payload.
func resultURL(result map[string]any, key string) (string, error) {
	obj, ok := result[key].(map[string]any)
	if !ok {
		return "", fmt.Errorf("result has no %s object", key)
	}
	u, ok := obj["url"].(string)
	if !ok {
		return "", fmt.Errorf("%s object has no url", key)
	}
	return u, nil
}
