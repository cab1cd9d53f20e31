package notifications

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/9ssi7/exponent"
)

// SendMentionPush notifies a user that someone mentioned them in a review
// comment. Callers treat this as fire-and-forget: the mention notification
// row is already persisted before this runs, and a push failure only gets
// logged.
func SendMentionPush(ctx context.Context, push PushSender, tokens TokenSource, recipientID int64, senderName string, reviewID int64, commentID string) error {
	tokensMap, err := tokens.GetTokensByUserIDs(ctx, []int64{recipientID})
	if err != nil {
		return err
	}
	recipientTokens := dedupe(tokensMap[recipientID])
	if len(recipientTokens) == 0 {
		return errors.New("no push tokens")
	}

	title := "You were mentioned"
	body := fmt.Sprintf("%s mentioned you in a comment", senderName)
	screen := fmt.Sprintf("reviews/%s", strconv.FormatInt(reviewID, 10))

	msgs := make([]*exponent.Message, 0, len(recipientTokens))
	for _, t := range recipientTokens {
		token := exponent.Token(t)
		msg := &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  body,
			Data: map[string]string{
				"type":       "mention",
				"review_id":  strconv.FormatInt(reviewID, 10),
				"comment_id": commentID,
				"screen":     screen,
			},
		}
		msgs = append(msgs, msg)
	}

	_, err = push.Publish(ctx, msgs)
	return err
}

func dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
