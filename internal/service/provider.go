// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"fmt"

	"github.com/wneessen/parktrack/internal/http"
	"github.com/wneessen/parktrack/internal/locate"
	"github.com/wneessen/parktrack/internal/locate/provider/geoclue"
	"github.com/wneessen/parktrack/internal/locate/provider/gpsd"
	"github.com/wneessen/parktrack/internal/locate/provider/ichnaea"
	"github.com/wneessen/parktrack/internal/logger"
)

func (s *Service) selectLocationProviders() ([]locate.Provider, error) {
	var providers []locate.Provider

	if !s.config.Location.DisableGPSD {
		providers = append(providers, gpsd.New(s.config.Location.GPSDHost, s.config.Location.GPSDPort))
	}

	if !s.config.Location.DisableGeoClue {
		providers = append(providers, geoclue.New(DesktopID))
	}

	if !s.config.Location.DisableICHNAEA {
		mls, err := ichnaea.New(http.New(s.logger))
		if err != nil {
			s.logger.Error("failed to create ICHNAEA provider", logger.Err(err))
		} else {
			providers = append(providers, mls)
		}
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("no location providers enabled")
	}

	return providers, nil
}

func (s *Service) selectPermission() locate.Permission {
	if s.config.Location.ForceGrant {
		return locate.Static(true)
	}
	return locate.NewAgentPermission(s.logger)
}
