package utils

import (
	"net/url"
	"strings"
)

// ImageHosts 允许代理的海报图片域名
var ImageHosts = []string{"ltrbxd.com", "letterboxd.com"}

// FilmPageHosts 允许抓取海报的电影页面域名
var FilmPageHosts = []string{"letterboxd.com", "boxd.it"}

// AllowedURL 判断 URL 是否为 http(s)，且域名为 hosts 之一或其子域名
func AllowedURL(u *url.URL, hosts []string) bool {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
