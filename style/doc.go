/*
Package style holds the style and constraint values a layout engine consumes.

Styles are deliberately plain values. They are handed to the layout worker
by copy and never shared between goroutines. Lengths are expressed in
typographic units (dimen.DU) throughout.

Dimensions

A Dimension is an option type: it is either auto, a fixed length or a
percentage of the containing block. Clients inspect a Dimension by
matching it:

    var du dimen.DU
    switch m := d.Match(); m {
    case m.Points(&du):
        // fixed length du
    case m.IsAuto():
        // size from content or flex
    }

Available Space

A measurement is constrained per axis by a Space, which is either definite,
min-content or max-content.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package style
