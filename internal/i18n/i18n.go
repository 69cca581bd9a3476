// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"fmt"

	"github.com/Xuanwo/go-locale"
	"github.com/vorlif/humanize"
	"github.com/vorlif/humanize/locale/de"
	"github.com/vorlif/spreak"
	"golang.org/x/text/language"
)

// New creates a localizer and a humanizer for the given locale. An empty
// locale string triggers autodetection from the environment, falling back
// to English.
func New(loc string) (*spreak.Localizer, *humanize.Humanizer, error) {
	tag := language.Make(loc)
	var err error
	if loc == "" {
		tag, err = locale.Detect()
		if err != nil {
			tag = language.English // Unable to detect locale, fallback to English
		}
	}

	bundle, err := spreak.NewBundle(
		spreak.WithSourceLanguage(language.English),
		spreak.WithFallbackLanguage(language.English),
		spreak.WithLanguage(tag),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create i18n bundle: %w", err)
	}

	collection := humanize.MustNew(humanize.WithLocale(de.New()))
	return spreak.NewLocalizer(bundle, tag), collection.CreateHumanizer(tag), nil
}
