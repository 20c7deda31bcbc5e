package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"studenteats/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"gorm.io/gorm"
)

// snsAPI is the slice of the SNS client the push service needs.
type snsAPI interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	db          *gorm.DB
	sns         snsAPI
	platformArn string
}

func NewPushService(ctx context.Context, db *gorm.DB, region, platformArn string) (*PushService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return newPushService(db, awssns.NewFromConfig(cfg), platformArn), nil
}

func newPushService(db *gorm.DB, client snsAPI, platformArn string) *PushService {
	return &PushService{db: db, sns: client, platformArn: platformArn}
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required,oneof=android ios"`
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

// RegisterDevice creates (or refreshes) the SNS endpoint for a device token.
func (p *PushService) RegisterDevice(ctx context.Context, userID string, req RegisterDeviceReq) (*models.UserDevice, error) {
	if err := validateInput(req); err != nil {
		return nil, err
	}
	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.platformArn),
		Token:                  aws.String(req.Token),
	})
	if err != nil {
		return nil, Upstream("registering device", err)
	}

	dev := models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(req.Platform),
		TokenHash:   tokenHash(req.Token),
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
	}
	db := p.db.WithContext(ctx)
	var existing models.UserDevice
	if err := db.Where("user_id = ? AND token_hash = ?", userID, dev.TokenHash).First(&existing).Error; err == nil {
		existing.EndpointARN = dev.EndpointARN
		existing.Platform = dev.Platform
		existing.UpdatedAt = time.Now()
		if err := db.Save(&existing).Error; err != nil {
			return nil, Upstream("saving device", err)
		}
		return &existing, nil
	}
	if err := db.Create(&dev).Error; err != nil {
		return nil, Upstream("saving device", err)
	}
	return &dev, nil
}

// SetEnabled toggles push for every device of a user.
func (p *PushService) SetEnabled(ctx context.Context, userID string, enabled bool) error {
	err := p.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
	if err != nil {
		return Upstream("updating notification settings", err)
	}
	return nil
}

// PushToUser is best effort: failures are logged per device and never returned.
func (p *PushService) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) {
	var endpoints []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&endpoints).Error; err != nil {
		slog.Warn("push: loading devices failed", "user_id", userID, "err", err)
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	apns, _ := json.Marshal(map[string]any{
		"aps": map[string]any{"alert": map[string]string{"title": title, "body": body}},
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
		"APNS":    string(apns),
	})

	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			slog.Warn("push: publish failed", "user_id", userID, "device", d.ID, "err", err)
		}
	}
}
