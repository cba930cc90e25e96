package spaces

import (
	"bytes"
	"context"
	"io"

	"github.com/splashpool/splashpool/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Provider implements a digitalocean spaces based image storage
type Provider struct {
	spaces *s3.S3
	space  string
}

// New returns a new Provider instance
func New(space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession := session.New(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})

	spaces := s3.New(spacesSession)

	// Make sure the space exists and is reachable
	if _, err := spaces.HeadBucket(&s3.HeadBucketInput{Bucket: &space}); err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
	}, nil
}

// Put writes the image data for a key
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	object := s3.PutObjectInput{
		Bucket:      &p.space,
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	}

	_, err := p.spaces.PutObjectWithContext(ctx, &object)

	return err
}

// Get returns the image data for a key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	object := s3.GetObjectInput{
		Bucket: &p.space,
		Key:    aws.String(key),
	}

	output, err := p.spaces.GetObjectWithContext(ctx, &object)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, output.Body)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Delete removes the image data for a key. Spaces deletes are idempotent,
// deleting a key that does not exist succeeds.
func (p *Provider) Delete(ctx context.Context, key string) error {
	object := s3.DeleteObjectInput{
		Bucket: &p.space,
		Key:    aws.String(key),
	}

	_, err := p.spaces.DeleteObjectWithContext(ctx, &object)

	return err
}

// List returns all stored objects
func (p *Provider) List(ctx context.Context) ([]storage.Object, error) {
	var objects []storage.Object

	input := s3.ListObjectsV2Input{
		Bucket: &p.space,
	}

	err := p.spaces.ListObjectsV2PagesWithContext(ctx, &input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, item := range page.Contents {
			objects = append(objects, storage.Object{
				Key:     aws.StringValue(item.Key),
				Size:    aws.Int64Value(item.Size),
				ModTime: aws.TimeValue(item.LastModified),
			})
		}

		return true
	})
	if err != nil {
		return nil, err
	}

	return objects, nil
}
