package conf

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"
)

func TestValidateTinybeansSettings(t *testing.T) {
	// Define test cases using table-driven tests
	tests := []struct {
		name     string
		settings TinybeansSettings
		wantErr  bool
	}{
		{
			name: "valid defaults - should pass",
			settings: TinybeansSettings{
				APIBase:   DefaultAPIBase,
				FetchSize: 200,
				Timeout:   45 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "empty API base - should fail",
			settings: TinybeansSettings{
				APIBase:   "",
				FetchSize: 200,
			},
			wantErr: true,
		},
		{
			name: "relative API base - should fail",
			settings: TinybeansSettings{
				APIBase:   "api/1/",
				FetchSize: 200,
			},
			wantErr: true,
		},
		{
			name: "zero fetch size - should fail",
			settings: TinybeansSettings{
				APIBase:   DefaultAPIBase,
				FetchSize: 0,
			},
			wantErr: true,
		},
		{
			name: "negative fetch size - should fail",
			settings: TinybeansSettings{
				APIBase:   DefaultAPIBase,
				FetchSize: -5,
			},
			wantErr: true,
		},
		{
			name: "negative timeout - should fail",
			settings: TinybeansSettings{
				APIBase:   DefaultAPIBase,
				FetchSize: 200,
				Timeout:   -time.Second,
			},
			wantErr: true,
		},
	}

	// Run test cases
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTinybeansSettings(&tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateTinybeansSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTinybeansSettingsAddsTrailingSlash(t *testing.T) {
	settings := TinybeansSettings{
		APIBase:   "https://tinybeans.com/api/1",
		FetchSize: 200,
	}

	if err := validateTinybeansSettings(&settings); err != nil {
		t.Fatalf("validateTinybeansSettings() unexpected error: %v", err)
	}

	if !strings.HasSuffix(settings.APIBase, "/") {
		t.Errorf("expected API base to gain trailing slash, got %q", settings.APIBase)
	}
}

func TestValidateUploadSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings UploadSettings
		wantErr  bool
	}{
		{
			name: "valid defaults - should pass",
			settings: UploadSettings{
				Bucket:        "tinybeans-remote-upload-prod",
				CognitoRegion: "us-east-1",
				S3Region:      "us-west-2",
				PartSizeMB:    5,
			},
			wantErr: false,
		},
		{
			name: "empty bucket - should fail",
			settings: UploadSettings{
				CognitoRegion: "us-east-1",
				S3Region:      "us-west-2",
				PartSizeMB:    5,
			},
			wantErr: true,
		},
		{
			name: "empty cognito region - should fail",
			settings: UploadSettings{
				Bucket:     "tinybeans-remote-upload-prod",
				S3Region:   "us-west-2",
				PartSizeMB: 5,
			},
			wantErr: true,
		},
		{
			name: "empty s3 region - should fail",
			settings: UploadSettings{
				Bucket:        "tinybeans-remote-upload-prod",
				CognitoRegion: "us-east-1",
				PartSizeMB:    5,
			},
			wantErr: true,
		},
		{
			name: "part size below multipart minimum - should fail",
			settings: UploadSettings{
				Bucket:        "tinybeans-remote-upload-prod",
				CognitoRegion: "us-east-1",
				S3Region:      "us-west-2",
				PartSizeMB:    4,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUploadSettings(&tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateUploadSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateExportSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings ExportSettings
		wantErr  bool
	}{
		{
			name:     "valid defaults - should pass",
			settings: ExportSettings{Path: "export/", Database: "journal.db"},
			wantErr:  false,
		},
		{
			name:     "empty path - should fail",
			settings: ExportSettings{Database: "journal.db"},
			wantErr:  true,
		},
		{
			name:     "empty database - should fail",
			settings: ExportSettings{Path: "export/"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateExportSettings(&tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateExportSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSettingsCollectsAllSections(t *testing.T) {
	// Deliberately break every section and expect a combined ValidationError
	settings := &Settings{}
	settings.Tinybeans = TinybeansSettings{APIBase: "", FetchSize: 0}
	settings.Upload = UploadSettings{}
	settings.Export = ExportSettings{}

	err := ValidateSettings(settings)
	if err == nil {
		t.Fatal("expected validation to fail for zero-value settings")
	}

	var ve ValidationError
	if !stderrors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("expected 3 section errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
}
