package models

import (
	"time"

	"github.com/danielhkuo/influence-predict/influence"
)

// Request types

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=viewer analyst"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type PredictRequest struct {
	Followers int64 `json:"followers" validate:"gte=0"`
	Likes     int64 `json:"likes" validate:"gte=0"`
	Shares    int64 `json:"shares" validate:"gte=0"`
	Comments  int64 `json:"comments" validate:"gte=0"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=viewer analyst admin"`
}

// Response types

type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type UploadResponse struct {
	Message   string `json:"message"`
	DatasetID string `json:"dataset_id"`
}

type TrainResponse struct {
	Message   string        `json:"message"`
	DatasetID string        `json:"dataset_id"`
	BestModel string        `json:"best_model"`
	Metrics   []ModelMetric `json:"metrics"`
}

type PredictResponse struct {
	InfluenceLevel string  `json:"influence_level"`
	InfluenceScore float64 `json:"influence_score"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DashboardStats struct {
	TotalLikes      int64                  `json:"total_likes"`
	TotalShares     int64                  `json:"total_shares"`
	TotalComments   int64                  `json:"total_comments"`
	TotalRecords    int                    `json:"total_records"`
	SystemAccuracy  float64                `json:"system_accuracy"`
	Platform        string                 `json:"platform"`
	EngagementTrend []influence.TrendPoint `json:"engagement_trend"`
}

// Domain types

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	HashedPassword string    `json:"-"` // Never expose in JSON
	CreatedAt      time.Time `json:"created_at"`
}

type Dataset struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	FilePath    string    `json:"-"`
	Description string    `json:"description"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

type ModelMetric struct {
	ID        string    `json:"id"`
	ModelName string    `json:"model_name"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	F1Score   float64   `json:"f1_score"`
	IsBest    bool      `json:"is_best"`
	DatasetID *string   `json:"dataset_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Prediction struct {
	ID             string         `json:"id"`
	InputData      PredictRequest `json:"input_data"`
	InfluenceScore float64        `json:"influence_score"`
	InfluenceLevel string         `json:"influence_level"`
	PredictedBy    string         `json:"predicted_by"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}
