package config

import (
	"net/url"
	"os"
	"sync"
)

var (
	isDockerOnce   sync.Once
	isDockerResult bool
)

// IsRunningInDocker returns true if the engine runs inside a Docker container.
// Detection is based on /.dockerenv; the result is cached after the first call.
func IsRunningInDocker() bool {
	isDockerOnce.Do(func() {
		_, err := os.Stat("/.dockerenv")
		isDockerResult = err == nil
	})
	return isDockerResult
}

// ResolveHostForDocker maps loopback hosts to host.docker.internal when
// running in Docker so that Postgres or a local email generation service on
// the host machine stays reachable. Other hosts are returned unchanged.
func ResolveHostForDocker(host string) string {
	if !IsRunningInDocker() {
		return host
	}
	return rewriteLoopback(host)
}

// ResolveURLForDocker applies ResolveHostForDocker to the host part of rawURL.
// Unparseable URLs are returned unchanged.
func ResolveURLForDocker(rawURL string) string {
	if !IsRunningInDocker() {
		return rawURL
	}
	return rewriteURLHost(rawURL)
}

func rewriteLoopback(host string) string {
	if host == "localhost" || host == "127.0.0.1" {
		return "host.docker.internal"
	}
	return host
}

func rewriteURLHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	host := rewriteLoopback(u.Hostname())
	if port := u.Port(); port != "" {
		u.Host = host + ":" + port
	} else {
		u.Host = host
	}
	return u.String()
}
