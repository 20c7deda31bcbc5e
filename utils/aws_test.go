package utils

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestArchiveKey(t *testing.T) {
	at := time.Date(2025, 11, 10, 14, 3, 5, 0, time.FixedZone("EST", -5*3600))
	assert.Equal(t, "menus/2025/11/10/menus-20251110T190305Z.json", ArchiveKey(at))
}

func TestMenuArchivePut(t *testing.T) {
	fp := &fakePutter{}
	a := newMenuArchive(fp, "dining-menus")
	at := time.Date(2025, 11, 10, 6, 0, 0, 0, time.UTC)

	key, err := a.Put(context.Background(), at, []byte(`{"Worcester":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "menus/2025/11/10/menus-20251110T060000Z.json", key)
	assert.Equal(t, "dining-menus", aws.ToString(fp.in.Bucket))
	assert.Equal(t, key, aws.ToString(fp.in.Key))
	assert.Equal(t, "application/json", aws.ToString(fp.in.ContentType))
	assert.JSONEq(t, `{"Worcester":[]}`, string(fp.body))

	fp.err = errors.New("access denied")
	_, err = a.Put(context.Background(), at, []byte(`{}`))
	assert.ErrorContains(t, err, "access denied")
}

type fakeSender struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSender) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	return &ses.SendEmailOutput{}, f.err
}

func TestMailerSend(t *testing.T) {
	fs := &fakeSender{}
	m := &Mailer{client: fs, from: "menus@studenteats.app"}

	require.NoError(t, m.Send(context.Background(), "ops@studenteats.app", "Menu update", "12 items"))
	assert.Equal(t, "menus@studenteats.app", aws.ToString(fs.in.Source))
	assert.Equal(t, []string{"ops@studenteats.app"}, fs.in.Destination.ToAddresses)
	assert.Equal(t, "Menu update", aws.ToString(fs.in.Message.Subject.Data))
	assert.Equal(t, "12 items", aws.ToString(fs.in.Message.Body.Text.Data))

	fs.err = errors.New("throttled")
	assert.ErrorContains(t, m.Send(context.Background(), "ops@studenteats.app", "s", "b"), "throttled")
}
