package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/memohai/chatbridge/internal/channel"
)

// Action id prefixes understood by the interactive-action router.
const (
	actionReplaceButtons = "replace_buttons"
	actionRemoveButtons  = "remove_buttons"
	actionDiscard        = "discard_action"
	actionOptionSelected = "option_selected"
	actionFeedback       = "feedback"

	feedbackBlockPrefix = "feedback-"
)

// Section text longer than this is split over several messages.
const maxSectionText = 3000

// Fragment is one chat.postMessage call: fallback text plus Block Kit blocks.
type Fragment struct {
	Text   string
	Blocks []slack.Block
}

// MessagePoster posts messages. *slack.Client satisfies it.
type MessagePoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Clients is the per-bot Slack client bundle.
type Clients struct {
	API MessagePoster
}

type renderContext = channel.RenderContext[Fragment, Clients]

func defaultRenderers() []channel.Renderer[Fragment, Clients] {
	return []channel.Renderer[Fragment, Clients]{
		channel.CardToCarousel[Fragment, Clients]{},
		textRenderer{},
		imageRenderer{},
		carouselRenderer{},
		choicesRenderer{},
		dropdownRenderer{},
		feedbackRenderer{},
	}
}

func textObject(text string, markdown bool) *slack.TextBlockObject {
	if markdown {
		return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
	}
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

type textRenderer struct{}

func (textRenderer) Name() string { return "text" }

func (textRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadText && strings.TrimSpace(rc.Payload.Text) != ""
}

func (textRenderer) Render(_ context.Context, rc *renderContext) error {
	for _, chunk := range channel.SplitText(rc.Payload.Text, maxSectionText, rc.Payload.Markdown) {
		rc.AppendFragment(Fragment{
			Text:   chunk,
			Blocks: []slack.Block{slack.NewSectionBlock(textObject(chunk, rc.Payload.Markdown), nil, nil)},
		})
	}
	return nil
}

type imageRenderer struct{}

func (imageRenderer) Name() string { return "image" }

func (imageRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadImage
}

func (imageRenderer) Render(_ context.Context, rc *renderContext) error {
	url := strings.TrimSpace(rc.Payload.Image)
	if url == "" {
		return fmt.Errorf("image payload has no url")
	}
	alt := rc.Payload.Title
	if alt == "" {
		alt = "image"
	}
	var title *slack.TextBlockObject
	if rc.Payload.Title != "" {
		title = plainText(rc.Payload.Title)
	}
	rc.AppendFragment(Fragment{
		Text:   alt,
		Blocks: []slack.Block{slack.NewImageBlock(url, alt, "", title)},
	})
	return nil
}

type carouselRenderer struct{}

func (carouselRenderer) Name() string { return "carousel" }

func (carouselRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadCarousel && len(rc.Payload.Items) > 0
}

func (carouselRenderer) Render(_ context.Context, rc *renderContext) error {
	blocks := make([]slack.Block, 0, len(rc.Payload.Items)*3)
	for i, card := range rc.Payload.Items {
		if i > 0 {
			blocks = append(blocks, slack.NewDividerBlock())
		}
		text := "*" + card.Title + "*"
		if card.Subtitle != "" {
			text += "\n" + card.Subtitle
		}
		var accessory *slack.Accessory
		if card.Image != "" {
			accessory = slack.NewAccessory(slack.NewImageBlockElement(card.Image, card.Title))
		}
		blocks = append(blocks, slack.NewSectionBlock(textObject(text, true), nil, accessory))

		buttons := make([]slack.BlockElement, 0, len(card.Actions))
		for j, action := range card.Actions {
			switch action.Kind {
			case channel.ActionURL:
				btn := slack.NewButtonBlockElement(fmt.Sprintf("url%d_%d", i, j), action.URL, plainText(action.Title))
				btn.URL = action.URL
				buttons = append(buttons, btn)
			case channel.ActionPostback, channel.ActionSay:
				buttons = append(buttons, slack.NewButtonBlockElement(
					fmt.Sprintf("%s%d_%d", actionReplaceButtons, i, j), action.Value(), plainText(action.Title)))
			default:
				return fmt.Errorf("unsupported card action: %s", action.Kind)
			}
		}
		if len(buttons) > 0 {
			blocks = append(blocks, slack.NewActionBlock(fmt.Sprintf("card%d", i), buttons...))
		}
	}
	rc.AppendFragment(Fragment{Text: rc.Payload.Items[0].Title, Blocks: blocks})
	return nil
}

type choicesRenderer struct{}

func (choicesRenderer) Name() string { return "choices" }

func (choicesRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadSingleChoice && len(rc.Payload.Choices) > 0
}

func (choicesRenderer) Render(_ context.Context, rc *renderContext) error {
	buttons := make([]slack.BlockElement, 0, len(rc.Payload.Choices))
	for i, choice := range rc.Payload.Choices {
		buttons = append(buttons, slack.NewButtonBlockElement(
			fmt.Sprintf("%s%d", actionReplaceButtons, i), choice.Value, plainText(choice.Title)))
	}
	blocks := make([]slack.Block, 0, 2)
	if rc.Payload.Text != "" {
		blocks = append(blocks, slack.NewSectionBlock(textObject(rc.Payload.Text, true), nil, nil))
	}
	blocks = append(blocks, slack.NewActionBlock("choices", buttons...))
	rc.AppendFragment(Fragment{Text: fallbackText(rc.Payload.Text, "choices"), Blocks: blocks})
	return nil
}

type dropdownRenderer struct{}

func (dropdownRenderer) Name() string { return "dropdown" }

func (dropdownRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.Type == channel.PayloadDropdown && len(rc.Payload.Options) > 0
}

func (dropdownRenderer) Render(_ context.Context, rc *renderContext) error {
	options := make([]*slack.OptionBlockObject, 0, len(rc.Payload.Options))
	for _, opt := range rc.Payload.Options {
		options = append(options, slack.NewOptionBlockObject(opt.Value, plainText(opt.Title), nil))
	}
	placeholder := rc.Payload.Placeholder
	if placeholder == "" {
		placeholder = "Select..."
	}
	selectElement := slack.NewOptionsSelectBlockElement(slack.OptTypeStatic, plainText(placeholder), actionOptionSelected, options...)

	blocks := make([]slack.Block, 0, 2)
	if rc.Payload.Text != "" {
		blocks = append(blocks, slack.NewSectionBlock(textObject(rc.Payload.Text, true), nil, nil))
	}
	blocks = append(blocks, slack.NewActionBlock("dropdown", selectElement))
	rc.AppendFragment(Fragment{Text: fallbackText(rc.Payload.Text, placeholder), Blocks: blocks})
	return nil
}

type feedbackRenderer struct{}

func (feedbackRenderer) Name() string { return "feedback" }

func (feedbackRenderer) Handles(rc *renderContext) bool {
	return rc.Payload.CollectFeedback && strings.TrimSpace(rc.Payload.EventID) != ""
}

func (feedbackRenderer) Render(_ context.Context, rc *renderContext) error {
	up := slack.NewButtonBlockElement(actionFeedback+"_up", "1", plainText("👍"))
	down := slack.NewButtonBlockElement(actionFeedback+"_down", "-1", plainText("👎"))
	rc.AppendFragment(Fragment{
		Text:   "Was this helpful?",
		Blocks: []slack.Block{slack.NewActionBlock(feedbackBlockPrefix+strings.TrimSpace(rc.Payload.EventID), up, down)},
	})
	return nil
}

func fallbackText(text, fallback string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	return fallback
}
