package rekognition

// Config holds configuration for the AWS Rekognition label detector
type Config struct {
	// Region is the AWS region where Rekognition service will be used (e.g., "us-east-2")
	Region string

	// MaxLabels caps the number of labels returned per image
	MaxLabels int32

	// MinConfidence drops labels below this confidence (0-100)
	MinConfidence float32
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-2",
		MaxLabels:     50,
		MinConfidence: 30,
	}
}
