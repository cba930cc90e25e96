package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/splashpool/splashpool/internal/logger"
	"github.com/splashpool/splashpool/internal/photo"
)

const (
	apiURL      = "https://api.unsplash.com"
	unsplashURL = "https://unsplash.com"

	// Request budgets for the unsplash api tiers, see
	// https://unsplash.com/documentation#rate-limiting
	demoRequestsPerHour       = 50
	productionRequestsPerHour = 5000

	// Fetching one photo costs two api requests, one for the random photo
	// and one for the download notification endpoint
	requestsPerPhoto = 2
)

// Provider fetches random photos from the unsplash api
type Provider struct {
	APIURL string // defaults to the public unsplash api

	client          *http.Client
	limiter         *rate.Limiter
	accessKey       string
	appName         string
	requestsPerHour int
	log             *logger.Logger
}

// New returns a Provider fetching photos from the unsplash api. Production
// api access raises the request budget from 50 to 5000 requests per hour.
// Passing a nil client uses a default http client.
func New(log *logger.Logger, client *http.Client, accessKey, appName string, production bool) *Provider {
	if client == nil {
		client = &http.Client{}
	}

	requestsPerHour := demoRequestsPerHour
	if production {
		requestsPerHour = productionRequestsPerHour
	}

	return &Provider{
		APIURL:          apiURL,
		client:          client,
		limiter:         rate.NewLimiter(rate.Limit(2), 2),
		accessKey:       accessKey,
		appName:         appName,
		requestsPerHour: requestsPerHour,
		log:             log,
	}
}

// RateLimit declares the effective photo budget for the configured api tier
func (p *Provider) RateLimit() photo.RateLimit {
	return photo.RateLimit{
		Calls:  p.requestsPerHour / requestsPerPhoto,
		Window: time.Hour,
	}
}

// Random fetches one random photo for the given topic at the given size.
// It asks the api for a random photo, downloads the image data, and
// notifies the api of the download as its guidelines require.
func (p *Provider) Random(ctx context.Context, topic string, width, height int) (*photo.Image, error) {
	fetchID := uuid.NewString()
	p.log.Debugw("fetching random photo", "fetch-id", fetchID, "topic", topic)

	meta, err := p.randomPhoto(ctx, topic, width, height)
	if err != nil {
		return nil, err
	}

	// The custom url honors the requested dimensions, it is only present
	// when the api call included them
	imageURL := meta.URLs.Custom
	if imageURL == "" {
		imageURL = meta.URLs.Small
	}

	data, err := p.downloadImage(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("downloading image %s: %w", meta.ID, err)
	}

	// The download notification is best effort, the image data is already here
	if err := p.notifyDownload(ctx, meta.ID); err != nil {
		p.log.Warnw("error notifying photo download", "fetch-id", fetchID, "id", meta.ID, "error", err)
	}

	p.log.Debugw("fetched random photo", "fetch-id", fetchID, "topic", topic, "id", meta.ID, "bytes", len(data))

	return &photo.Image{
		ID:          meta.ID,
		Topic:       topic,
		Attribution: p.attribution(meta),
		Data:        data,
	}, nil
}

type randomPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Small  string `json:"small"`
		Custom string `json:"custom"`
	} `json:"urls"`
	User struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

func (p *Provider) randomPhoto(ctx context.Context, topic string, width, height int) (*randomPhoto, error) {
	query := url.Values{}
	query.Set("query", topic)
	query.Set("orientation", "landscape")
	query.Set("w", strconv.Itoa(width))
	query.Set("h", strconv.Itoa(height))

	body, err := p.apiGet(ctx, fmt.Sprintf("%s/photos/random?%s", p.APIURL, query.Encode()))
	if err != nil {
		return nil, err
	}

	var meta randomPhoto
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding photo metadata: %w", err)
	}

	return &meta, nil
}

func (p *Provider) notifyDownload(ctx context.Context, id string) error {
	_, err := p.apiGet(ctx, fmt.Sprintf("%s/photos/%s/download", p.APIURL, url.PathEscape(id)))
	return err
}

// apiGet performs an authenticated request against the unsplash api
func (p *Provider) apiGet(ctx context.Context, rawURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Client-ID %s", p.accessKey))
	req.Header.Set("Accept-Version", "v1")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, photo.ErrNotFound
	case res.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unsplash api returned status %d", res.StatusCode)
	}

	return io.ReadAll(res.Body)
}

// downloadImage fetches the image bytes from the unsplash image cdn
func (p *Provider) downloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", res.StatusCode)
	}

	return io.ReadAll(res.Body)
}

// attribution renders the photo credit the way the unsplash guidelines
// ask for, including the referral parameters
func (p *Provider) attribution(meta *randomPhoto) string {
	referral := fmt.Sprintf("utm_source=%s&utm_medium=referral", url.QueryEscape(p.appName))
	photographer := fmt.Sprintf("<a href=\"%s?%s\">%s</a>", meta.User.Links.HTML, referral, meta.User.Name)

	return fmt.Sprintf("Photo by %s on <a href=\"%s/?%s\">Unsplash</a>", photographer, unsplashURL, referral)
}
