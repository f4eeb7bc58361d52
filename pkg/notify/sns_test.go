package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSNotifierSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	notifier := &snsNotifier{
		id:       "digest-topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::digest",
		client:   client,
		log:      noopLogger{},
	}

	err := notifier.Send(context.Background(), Event{
		SessionID: "sess-1",
		ItemIDs:   []string{"zenn_a"},
		ItemCount: 1,
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::digest" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["session_id"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "sess-1" {
		t.Fatalf("session_id attribute missing or wrong: %#v", attr)
	}
	if attr.DataType == nil || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	if client.input.Message == nil || !strings.Contains(aws.ToString(client.input.Message), `"session_id":"sess-1"`) {
		t.Fatalf("Message missing session_id: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSNotifierSendError(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("boom")}
	notifier := &snsNotifier{
		id:       "digest-topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::digest",
		client:   client,
		log:      noopLogger{},
	}

	if err := notifier.Send(context.Background(), Event{SessionID: "sess-1"}); err == nil {
		t.Fatalf("expected error from Send")
	}
}
