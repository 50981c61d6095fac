package agent

import (
	"context"
	"image"

	"ai-shopping-assistant-be/pkg/reviews"
	"ai-shopping-assistant-be/pkg/vision"
)

const noImage = "No image was uploaded."

// Tool is one action the agent can take. Image is the upload of the current
// request, nil when there is none.
type Tool struct {
	Name        string
	Description string
	Execute     func(ctx context.Context, input string, img image.Image) (string, error)
}

// ShoppingTools returns DescribeImage, DetectColor and RAGAnswer.
func ShoppingTools(captioner vision.Captioner, answerer reviews.Answerer) []Tool {
	return []Tool{
		{
			Name:        "DescribeImage",
			Description: "Use when the user asks what an uploaded image is or to describe it.",
			Execute: func(ctx context.Context, _ string, img image.Image) (string, error) {
				if img == nil {
					return noImage, nil
				}
				return vision.Describe(ctx, captioner, img), nil
			},
		},
		{
			Name:        "DetectColor",
			Description: "Use when the user asks about the color of the uploaded image.",
			Execute: func(_ context.Context, _ string, img image.Image) (string, error) {
				if img == nil {
					return noImage, nil
				}
				return vision.DominantColor(img), nil
			},
		},
		{
			Name:        "RAGAnswer",
			Description: "Use for factual/product questions over the reviews corpus.",
			Execute: func(ctx context.Context, input string, _ image.Image) (string, error) {
				return answerer.Answer(ctx, input)
			},
		},
	}
}
