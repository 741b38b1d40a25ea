package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Service declares one monitored target in the services file.
type Service struct {
	// Name is the unique service name used as the record key.
	Name string `yaml:"name"`

	// URL is the HTTP endpoint probed with a GET request.
	URL string `yaml:"url"`
}

// servicesFile is the on-disk shape of the monitored-services declaration:
//
//	services:
//	  - name: supabase
//	    url: https://db.foodshare.club/rest/v1/
//	  - name: email-provider
//	    url: https://api.mailprovider.example/status
type servicesFile struct {
	Services []Service `yaml:"services"`
}

// LoadServices parses the monitored-services YAML file. An empty path
// returns no services and no error.
func LoadServices(path string) ([]Service, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read services file: %w", err)
	}

	var f servicesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse services file: %w", err)
	}

	seen := make(map[string]bool, len(f.Services))
	for _, svc := range f.Services {
		if svc.Name == "" {
			return nil, fmt.Errorf("service entry missing name")
		}
		if seen[svc.Name] {
			return nil, fmt.Errorf("duplicate service name %q", svc.Name)
		}
		seen[svc.Name] = true

		u, err := url.Parse(svc.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("service %q has invalid url %q", svc.Name, svc.URL)
		}
	}

	return f.Services, nil
}
